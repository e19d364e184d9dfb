package gateway

import "fmt"

// APIError is a non-2xx response from the gateway or an upstream service.
// Message carries the upstream `message` field when the body was JSON,
// otherwise the raw body prefixed with the status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// TransportError is a connection-level failure: the request never produced
// an HTTP status.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway unreachable: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
