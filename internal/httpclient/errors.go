package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any *StatusError carrying 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingSession is returned before sending when a request was marked
	// authorized without a session id.
	ErrMissingSession = errors.New("authorized request without session id")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// TransportError is a failure to get any response at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is a 2xx response whose body did not match the expected payload.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
