/*
Package errs provides custom error types and application-level error code constants.

These error codes classify every failure the client can report, so callers can tell
"no data" apart from "request failed" and branch on the kind of failure.
*/
package errs

// 1xxx: Request Construction Errors
const (
	// ErrInvalidParams indicates that client-side validation of the request input failed.
	ErrInvalidParams = 1001

	// ErrEncodeFailed indicates that the request body could not be encoded (JSON or multipart).
	ErrEncodeFailed = 1002

	// ErrFileTooLarge indicates that an attachment exceeds the upload size limit.
	ErrFileTooLarge = 1003
)

// 3xxx: Authentication and Session Errors
const (
	// ErrUnauthorized indicates HTTP 401, or a session that could not be recovered by a refresh.
	ErrUnauthorized = 3001

	// ErrForbidden indicates HTTP 403: the caller is authenticated but not allowed.
	ErrForbidden = 3002

	// ErrTokenDecode indicates that a bearer token could not be decoded into claims.
	ErrTokenDecode = 3003

	// ErrRefreshFailed indicates that the refresh endpoint did not issue a new access token.
	ErrRefreshFailed = 3004
)

// 4xxx: Resource Errors
const (
	// ErrBadRequest indicates HTTP 400. Details carries the server's field validation messages.
	ErrBadRequest = 4000

	// ErrNotFound indicates HTTP 404.
	ErrNotFound = 4004

	// ErrConflict indicates HTTP 409.
	ErrConflict = 4009
)

// 5xxx: System Errors
const (
	// ErrUnknown represents an unclassified error.
	ErrUnknown = 5000

	// ErrServer indicates any 5xx response from the backend.
	ErrServer = 5001

	// ErrTransport indicates a network-level failure (dial, TLS, timeout) with no HTTP response.
	ErrTransport = 5002

	// ErrUnexpectedStatus indicates a non-2xx status the endpoint does not document.
	ErrUnexpectedStatus = 5003

	// ErrDecodeFailed indicates that a response body could not be decoded.
	ErrDecodeFailed = 5004

	// ErrFileStorageFailed indicates that mirroring an attachment to object storage failed.
	ErrFileStorageFailed = 5005
)
