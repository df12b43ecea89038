/*
Package errs provides custom error types and application-level error code constants.

This file maps each error code to its CustomError template.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Status is the HTTP status usually associated with the code. NewError overrides it
// with the status actually received when one is known.
var errorMap = map[int]CustomError{
	// 1xxx: Request Construction Errors
	ErrInvalidParams: {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrEncodeFailed:  {Code: ErrEncodeFailed, Message: "Failed to encode request body."},
	ErrFileTooLarge:  {Code: ErrFileTooLarge, Message: "File is too large."},

	// 3xxx: Authentication and Session Errors
	ErrUnauthorized:  {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:     {Code: ErrForbidden, Message: "You are not allowed to access this resource.", Status: http.StatusForbidden},
	ErrTokenDecode:   {Code: ErrTokenDecode, Message: "Access token is malformed."},
	ErrRefreshFailed: {Code: ErrRefreshFailed, Message: "Cannot refresh access token."},

	// 4xxx: Resource Errors
	ErrBadRequest: {Code: ErrBadRequest, Message: "Request was rejected by the server.", Status: http.StatusBadRequest},
	ErrNotFound:   {Code: ErrNotFound, Message: "Resource not found.", Status: http.StatusNotFound},
	ErrConflict:   {Code: ErrConflict, Message: "Resource conflict.", Status: http.StatusConflict},

	// 5xxx: System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again."},
	ErrServer:            {Code: ErrServer, Message: "Server error (HTTP %d).", Status: http.StatusInternalServerError},
	ErrTransport:         {Code: ErrTransport, Message: "Cannot reach the server."},
	ErrUnexpectedStatus:  {Code: ErrUnexpectedStatus, Message: "Unexpected response status %d."},
	ErrDecodeFailed:      {Code: ErrDecodeFailed, Message: "Failed to decode server response."},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File mirror failed. Please try again."},
}
