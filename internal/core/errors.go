package core

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned by ticket and claim mutators when the
// input violates the wire format (empty entries, embedded spaces). The
// target is always left unchanged.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidToken is the single error every codec or validation
// failure collapses into at the lifecycle boundary. Callers never see
// why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// ProtocolError is a recoverable failure surfaced to the client as an
// OAuth2 error response.
type ProtocolError struct {
	Code        string
	Description string
	URI         string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewProtocolError builds a protocol error; an empty code defaults to
// invalid_request.
func NewProtocolError(code, description, uri string) *ProtocolError {
	if code == "" {
		code = ErrorInvalidRequest
	}
	return &ProtocolError{Code: code, Description: description, URI: uri}
}

// ServerError is the contract-violation error: it never carries
// internal detail to the caller.
func ServerError() *ProtocolError {
	return &ProtocolError{
		Code:        ErrorServerError,
		Description: "An internal server error occurred.",
	}
}
