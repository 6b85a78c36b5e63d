// Package http is the in-process streaming ToolInvoker: it acquires a
// session through the session store, POSTs the JSON-RPC envelope to the
// derived message URL, and decodes the streamed response.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/mcp/session"
	"github.com/lumen-ai/lumen-cli/mcp/transport"
	"github.com/lumen-ai/lumen-cli/mcp/types"
	"github.com/lumen-ai/lumen-cli/str"
)

// DefaultCallTimeout bounds a whole tool call, independent of how much data
// has arrived.
const DefaultCallTimeout = 60 * time.Second

// Invoker is the session-based streaming transport.
type Invoker struct {
	sessions *session.Store
	client   *http.Client
	timeout  time.Duration
	logger   logger.Logger
}

var _ transport.ToolInvoker = (*Invoker)(nil)

// Option configures an Invoker.
type Option func(*Invoker)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Invoker) { i.client = client }
}

// WithCallTimeout overrides the overall tool-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.timeout = d }
}

// New returns a streaming invoker using the given session store.
func New(sessions *session.Store, log logger.Logger, options ...Option) *Invoker {
	i := &Invoker{
		sessions: sessions,
		client:   http.DefaultClient,
		timeout:  DefaultCallTimeout,
		logger:   log.WithPrefix("[mcp]"),
	}
	for _, option := range options {
		option(i)
	}
	return i
}

// CallTool invokes a remote tool. Session acquisition strictly precedes the
// message POST.
func (i *Invoker) CallTool(ctx context.Context, endpoint, credential, tool string, arguments map[string]any) (any, error) {
	req := transport.NewCallRequest(tool, arguments)
	return i.invoke(ctx, endpoint, credential, tool, req)
}

// ListTools fetches the endpoint's tool inventory.
func (i *Invoker) ListTools(ctx context.Context, endpoint, credential string) (any, error) {
	req := transport.NewListRequest()
	return i.invoke(ctx, endpoint, credential, types.MethodToolsList, req)
}

func (i *Invoker) invoke(ctx context.Context, endpoint, credential, tool string, rpcReq types.Request) (any, error) {
	sessionID, err := i.sessions.Acquire(ctx, endpoint, credential)
	if err != nil {
		return nil, err
	}

	url := mcp.MessageURL(endpoint, sessionID, credential)
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, mcp.NewToolCallError(tool, url, 0, "", errors.Wrap(err, "encoding request"))
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	i.logger.Trace("POST %s", str.MaskAuthQuery(url))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, mcp.NewToolCallError(tool, url, 0, "", errors.Wrap(err, "creating request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := i.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, mcp.NewToolCallError(tool, url, 0, "", errors.New("timed out sending request"))
		}
		return nil, mcp.NewToolCallError(tool, url, 0, "", errors.Wrap(err, "sending request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, mcp.NewToolCallError(tool, url, resp.StatusCode, string(respBody),
			errors.Newf("request failed with status %d", resp.StatusCode))
	}

	value, err := transport.DecodeStream(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, mcp.NewToolCallError(tool, url, 0, "", errors.New("timed out waiting for result"))
		}
		return nil, mcp.NewToolCallError(tool, url, 0, "", err)
	}
	return value, nil
}
