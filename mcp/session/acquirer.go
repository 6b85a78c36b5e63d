package session

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/mcp/scan"
	"github.com/lumen-ai/lumen-cli/str"
)

// DefaultHandshakeTimeout bounds how long the acquirer waits for a session id
// to appear on the handshake stream.
const DefaultHandshakeTimeout = 5 * time.Second

// SSEAcquirer opens the remote SSE endpoint and extracts the session id from
// the initial event stream. It never retries; retry policy belongs to the
// caller.
type SSEAcquirer struct {
	client    *http.Client
	timeout   time.Duration
	scanLimit int
	logger    logger.Logger
}

var _ Acquirer = (*SSEAcquirer)(nil)

// AcquirerOption configures an SSEAcquirer.
type AcquirerOption func(*SSEAcquirer)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) AcquirerOption {
	return func(a *SSEAcquirer) { a.client = client }
}

// WithHandshakeTimeout overrides the handshake timeout.
func WithHandshakeTimeout(d time.Duration) AcquirerOption {
	return func(a *SSEAcquirer) { a.timeout = d }
}

// WithScanLimit overrides how much handshake text is scanned before giving up.
func WithScanLimit(n int) AcquirerOption {
	return func(a *SSEAcquirer) { a.scanLimit = n }
}

// NewSSEAcquirer returns a new session acquirer.
func NewSSEAcquirer(log logger.Logger, options ...AcquirerOption) *SSEAcquirer {
	a := &SSEAcquirer{
		client:    http.DefaultClient,
		timeout:   DefaultHandshakeTimeout,
		scanLimit: scan.DefaultScanLimit,
		logger:    log.WithPrefix("[sse]"),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Acquire opens the SSE stream and returns the first session id it emits.
// The credential goes into the URL raw (see mcp.AppendRawQuery); the rest of
// the stream is cancelled as soon as the id is found.
func (a *SSEAcquirer) Acquire(ctx context.Context, endpoint, credential string) (string, error) {
	url := mcp.SessionURL(endpoint, credential)
	a.logger.Trace("opening handshake stream %s", str.MaskAuthQuery(url))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", mcp.NewSessionError(endpoint, 0, errors.Wrap(err, "creating handshake request"))
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", mcp.NewSessionError(endpoint, 0, errors.New("timed out waiting for handshake"))
		}
		return "", mcp.NewSessionError(endpoint, 0, errors.Wrap(err, "opening handshake stream"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", mcp.NewSessionError(endpoint, resp.StatusCode,
			errors.Newf("handshake returned status %d: %s", resp.StatusCode, string(body)))
	}

	extractor := scan.NewSessionExtractor(a.scanLimit)
	buf := make([]byte, 512)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if id, found := extractor.Feed(buf[:n]); found {
				// Cancel the rest of the stream; there is no need to drain it.
				cancel()
				return id, nil
			}
			if extractor.Overflowed() {
				cancel()
				return "", mcp.NewSessionError(endpoint, 0,
					errors.Newf("no session id within the first %d characters of the stream", a.scanLimit))
			}
		}
		if err != nil {
			if err == io.EOF {
				if id, found := extractor.Finish(); found {
					return id, nil
				}
				return "", mcp.NewSessionError(endpoint, 0, errors.New("stream ended without a session id"))
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", mcp.NewSessionError(endpoint, 0, errors.New("timed out waiting for a session id"))
			}
			return "", mcp.NewSessionError(endpoint, 0, errors.Wrap(err, "reading handshake stream"))
		}
	}
}
