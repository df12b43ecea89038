package handler

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"oasip/internal/pkg/errs"
)

// commandFlags wraps a FlagSet with the checks every command shares.
type commandFlags struct {
	*flag.FlagSet
	set map[string]bool
}

func newFlags(deps *AppDeps, name string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(deps.Stderr)
	return &commandFlags{FlagSet: fs}
}

// parse parses args and records which flags were given explicitly.
func (f *commandFlags) parse(args []string) error {
	if err := f.Parse(args); err != nil {
		return ErrUsage
	}
	if f.NArg() > 0 {
		return errs.NewError(errs.ErrInvalidParams).
			WithMessage(fmt.Sprintf("%s: unexpected arguments %q", f.Name(), f.Args()))
	}

	f.set = make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return nil
}

// given reports whether the named flag appeared on the command line.
func (f *commandFlags) given(name string) bool {
	return f.set[name]
}

// require fails with the missing flag names as details.
func (f *commandFlags) require(names ...string) error {
	details := make(map[string]string)
	for _, name := range names {
		if !f.set[name] {
			details[name] = "flag is required"
		}
	}
	if len(details) > 0 {
		return errs.NewError(errs.ErrInvalidParams).
			WithMessage(fmt.Sprintf("%s: missing required flags", f.Name())).
			WithDetails(details)
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps.
func parseTime(flagName, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ErrInvalidParams, err).
			WithDetails(map[string]string{flagName: "must be an RFC 3339 timestamp"})
	}
	return t, nil
}
