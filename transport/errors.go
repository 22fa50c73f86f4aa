package transport

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	// KindNetwork covers connection failures: DNS, refused connections,
	// resets mid-response.
	KindNetwork ErrorKind = iota
	// KindTimeout covers deadline and client-timeout expiry.
	KindTimeout
	// KindHTTPStatus covers responses with status >= 400.
	KindHTTPStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http status"
	}
	return "unknown"
}

// Error is the only error type (*Client).Do returns for communication
// failures. Body carries the response body for HTTP status errors.
type Error struct {
	Kind       ErrorKind
	StatusCode int // set when Kind == KindHTTPStatus
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("transport: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsAuthFailure reports whether the backend rejected the request's
// authorization. Only a 401 counts; other 4xx/5xx are surfaced as-is.
func (e *Error) IsAuthFailure() bool {
	return e.Kind == KindHTTPStatus && e.StatusCode == http.StatusUnauthorized
}

// Temporary reports whether the failure is worth retrying: the backend was
// never reached or did not answer in time.
func (e *Error) Temporary() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}
