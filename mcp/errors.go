package mcp

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// SessionError is returned when the SSE handshake fails, returns a non-success
// status, or no session id could be extracted within the time/size bound.
type SessionError struct {
	Endpoint string
	Status   int
	Cause    error
}

func (e *SessionError) Error() string {
	msg := fmt.Sprintf("session acquisition failed for %s", e.Endpoint)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *SessionError) Unwrap() error { return e.Cause }

// NewSessionError wraps a failure during session acquisition.
func NewSessionError(endpoint string, status int, cause error) *SessionError {
	return &SessionError{Endpoint: endpoint, Status: status, Cause: cause}
}

// ToolCallError is returned when a tool invocation fails at any layer: the
// POST itself, a non-success status, a JSON-RPC error envelope, a result
// marked as an error, or a stream that ended or timed out without a usable
// result. Status carries the HTTP status code when one was observed so the
// command layer can distinguish authentication failures.
type ToolCallError struct {
	Tool   string
	URL    string
	Status int
	Body   string
	Cause  error
}

func (e *ToolCallError) Error() string {
	msg := "tool call failed"
	if e.Tool != "" {
		msg = fmt.Sprintf("tool call %q failed", e.Tool)
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ToolCallError) Unwrap() error { return e.Cause }

// NewToolCallError wraps a failure during tool invocation.
func NewToolCallError(tool, url string, status int, body string, cause error) *ToolCallError {
	return &ToolCallError{Tool: tool, URL: url, Status: status, Body: body, Cause: cause}
}

// StatusCode extracts the HTTP status from either error kind, or 0.
func StatusCode(err error) int {
	var tce *ToolCallError
	if errors.As(err, &tce) {
		return tce.Status
	}
	var se *SessionError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsAuthError reports whether the error carries an authentication-flavored
// HTTP status, so callers can map it to a distinct exit code.
func IsAuthError(err error) bool {
	status := StatusCode(err)
	return status == 401 || status == 403
}
