package stockfish

import "fmt"

// UpstreamHTTPError is returned when the Stockfish API answers with a non-2xx status.
type UpstreamHTTPError struct {
	StatusCode int
	StatusText string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("Stockfish API returned %d: %s", e.StatusCode, e.StatusText)
}

// TransportError is returned when the call to the Stockfish API could not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "Failed to reach Stockfish API: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaViolationError is returned when a 2xx body matches neither result variant.
type SchemaViolationError struct {
	Violations []Violation
}

func (e *SchemaViolationError) Error() string {
	return "Invalid response format from Stockfish API"
}

// Violation describes one field that failed response validation.
type Violation struct {
	Path     string `json:"path"`
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
	Received string `json:"received,omitempty"`
	Message  string `json:"message"`
}
