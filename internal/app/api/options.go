package api

// CallOption customizes a single bearer-authenticated call.
type CallOption func(*callOptions)

type callOptions struct {
	onUnauthorized func()
}

// OnUnauthorized registers fn to run when the call ends unauthorized after the
// refresh guard gave up: the refresh failed, or the retried request was rejected again.
func OnUnauthorized(fn func()) CallOption {
	return func(o *callOptions) {
		o.onUnauthorized = fn
	}
}

func collectOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
