package crud

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSubmitInFlight is returned by Submit while a create or update is still
// pending on the same controller.
var ErrSubmitInFlight = errors.New("crud: submission already in flight")

// RequestFailure is a response outside 2xx, or a 2xx whose envelope says
// success:false.
type RequestFailure struct {
	Method  string
	URL     string
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *RequestFailure) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// NetworkFailure means the request never produced a response.
type NetworkFailure struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkFailure) Unwrap() error { return e.Err }

// FieldError is one failed check on a submitted value.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError is raised locally before any request is sent.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the text a user should see for err, or fallback when err
// carries nothing presentable.
func Message(err error, fallback string) string {
	var rf *RequestFailure
	if errors.As(err, &rf) && rf.Message != "" {
		return rf.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		return ve.Fields[0].Message
	}
	return fallback
}
