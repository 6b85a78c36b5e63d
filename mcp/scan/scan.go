// Package scan implements the incremental parsing used against the remote
// service's event streams: splitting chunked reads into lines, recognizing
// SSE "data:" frames, and extracting the session id from the handshake
// stream. Chunks may split lines or tokens anywhere, so all state lives in
// the scanner rather than in any one read.
package scan

import (
	"bytes"
	"strings"
)

// LineScanner splits an incrementally-received byte stream into complete
// lines. Partial trailing data is buffered until the terminating newline
// arrives. A trailing \r is stripped so CRLF streams behave like LF streams.
type LineScanner struct {
	buf []byte
}

// Feed appends a chunk and returns the complete lines it finished.
func (s *LineScanner) Feed(p []byte) []string {
	s.buf = append(s.buf, p...)
	var lines []string
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			return lines
		}
		line := s.buf[:i]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		lines = append(lines, string(line))
		s.buf = s.buf[i+1:]
	}
}

// Rest returns any buffered partial line.
func (s *LineScanner) Rest() string {
	return string(s.buf)
}

// DataPayload returns the payload of an SSE "data:" line. The optional space
// after the colon is stripped per the SSE framing convention.
func DataPayload(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := line[len("data:"):]
	return strings.TrimPrefix(payload, " "), true
}

const sessionMarker = "sessionId="

func isTerminator(c byte) bool {
	return c == '&' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// SessionID scans text for sessionId=<value> where the value runs until the
// next '&', whitespace, newline, or the end of the text. Returns false when
// the marker is absent or the value is empty.
func SessionID(text string) (string, bool) {
	i := strings.Index(text, sessionMarker)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(sessionMarker):]
	end := len(rest)
	for j := 0; j < len(rest); j++ {
		if isTerminator(rest[j]) {
			end = j
			break
		}
	}
	if end == 0 {
		return "", false
	}
	return rest[:end], true
}

// SessionExtractor accumulates handshake stream text and looks for a
// terminated session id. The value must be followed by an explicit
// terminator before Feed reports it, so an id split across chunks is never
// truncated; Finish accepts an id that runs to the end of the stream.
type SessionExtractor struct {
	buf      strings.Builder
	limit    int
	overflow bool
}

// DefaultScanLimit bounds how much handshake text is buffered before the
// extraction is abandoned. The remote stream is unbounded in principle and
// must never be read to completion.
const DefaultScanLimit = 1000

// NewSessionExtractor returns an extractor that gives up after limit
// buffered characters (DefaultScanLimit if limit <= 0).
func NewSessionExtractor(limit int) *SessionExtractor {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return &SessionExtractor{limit: limit}
}

// Feed adds a chunk of stream text and reports a session id once one is
// present with a terminator after it.
func (e *SessionExtractor) Feed(chunk []byte) (string, bool) {
	if e.overflow {
		return "", false
	}
	e.buf.Write(chunk)
	if e.buf.Len() > e.limit {
		e.overflow = true
	}

	text := e.buf.String()
	i := strings.Index(text, sessionMarker)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(sessionMarker):]
	for j := 0; j < len(rest); j++ {
		if isTerminator(rest[j]) {
			if j == 0 {
				return "", false
			}
			return rest[:j], true
		}
	}
	// The value may still be arriving; wait for a terminator.
	return "", false
}

// Finish reports an id whose value ran to the end of the stream.
func (e *SessionExtractor) Finish() (string, bool) {
	return SessionID(e.buf.String())
}

// Overflowed reports whether the scan limit was exceeded without a match.
func (e *SessionExtractor) Overflowed() bool {
	return e.overflow
}
