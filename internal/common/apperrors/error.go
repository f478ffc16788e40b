// Package apperrors provides chained application errors that carry an HTTP status
// code. An error created from another keeps the parent as its base, so errors.Is
// matches every ancestor as well as every error attached with Err or MsgErr.
package apperrors

import "errors"

// Error defines the interface for application errors. All methods that derive a new
// error return Error to support chaining.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // creates a new error using current as template
	Msg(msg string) Error                  // creates a new error with message and wraps original
	MsgErr(msg string, err ...error) Error // creates error with message and wraps extra errors
	Err(err ...error) Error                // attaches additional errors to current error
	SetStatusCode(int) Error               // sets HTTP status code for the error
	StatusCode() int                       // returns the current status code
	ErrorAll() string                      // returns full message including wrapped errors
	UnwrapAll() []error                    // returns all wrapped errors
}

// StatusCodeOf returns the status code of the first application error in err's
// chain, or fallback when there is none or it carries no code.
func StatusCodeOf(err error, fallback int) int {
	var appErr Error
	if errors.As(err, &appErr) && appErr.StatusCode() != 0 {
		return appErr.StatusCode()
	}
	return fallback
}
