package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/mcp/scan"
	"github.com/lumen-ai/lumen-cli/mcp/types"
)

// ErrNoResult is returned when the response stream ends without any payload
// carrying a terminal result. It is never silently mapped to an empty success.
var ErrNoResult = errors.New("response stream ended without a result")

// RemoteError is an error the service reported inside a JSON-RPC payload,
// either as an error envelope or as a result marked isError.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
	}
	return e.Message
}

// evalPayload classifies one candidate JSON payload. The dispatch order is
// fixed: error envelope, then error-marked result, then content array, then
// bare result; anything else (partial frames, keep-alive noise, notifications)
// means keep reading.
func evalPayload(data []byte) (value any, done bool, err error) {
	var resp types.Response
	if jsonErr := json.Unmarshal(data, &resp); jsonErr != nil {
		return nil, false, nil
	}

	if resp.Error != nil {
		return nil, true, &RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
	}

	// A literal null result is not a payload; resolving it would turn an
	// empty frame into a nil success.
	if resp.Result == nil || bytes.Equal(bytes.TrimSpace(resp.Result), []byte("null")) {
		return nil, false, nil
	}

	var result types.ToolResult
	if jsonErr := json.Unmarshal(resp.Result, &result); jsonErr == nil {
		if result.Content != nil {
			var content any
			if jsonErr := json.Unmarshal(result.Content, &content); jsonErr != nil {
				return nil, true, &RemoteError{Message: "malformed result content"}
			}
			if result.IsError {
				msg, _ := Normalize(content).(string)
				if msg == "" {
					msg = "tool reported an error"
				}
				return nil, true, &RemoteError{Message: msg}
			}
			return Normalize(content), true, nil
		}
		if result.IsError {
			return nil, true, &RemoteError{Message: "tool reported an error"}
		}
	}

	// Bare result with no content envelope; hand it back as-is.
	var bare any
	if jsonErr := json.Unmarshal(resp.Result, &bare); jsonErr != nil {
		return nil, true, &RemoteError{Message: "malformed result"}
	}
	return bare, true, nil
}

// DecodeStream incrementally reads a tool-call response body and returns the
// first terminal payload. The body may be a bare JSON-RPC response or a
// text/event-stream whose data: lines each carry a JSON-RPC fragment; the
// server gives no advance notice of which, so both are handled. Read errors
// (including context cancellation surfaced through the reader) are returned
// to the caller for wrapping.
func DecodeStream(r io.Reader) (any, error) {
	var lineScanner scan.LineScanner
	var body []byte
	sawData := false

	buf := make([]byte, 4096)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
			for _, line := range lineScanner.Feed(buf[:n]) {
				payload, ok := scan.DataPayload(line)
				if !ok {
					continue
				}
				sawData = true
				if value, done, err := evalPayload([]byte(payload)); done {
					return value, err
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return nil, readErr
			}
			break
		}
	}

	// A final data: line may lack the trailing newline.
	if payload, ok := scan.DataPayload(lineScanner.Rest()); ok {
		sawData = true
		if value, done, err := evalPayload([]byte(payload)); done {
			return value, err
		}
	}

	// No SSE framing at all: the body is (hopefully) one JSON-RPC response.
	if !sawData {
		if value, done, err := evalPayload(body); done {
			return value, err
		}
	}

	return nil, ErrNoResult
}
