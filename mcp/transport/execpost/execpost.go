// Package execpost is the subprocess-POST ToolInvoker: instead of streaming
// in-process it shells out to curl, used where the in-process transport is
// unavailable or bypassed. Response parsing, normalization, and the raw
// credential placement are identical to the streaming transport, so the two
// are interchangeable from the caller's perspective.
package execpost

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/mcp/session"
	"github.com/lumen-ai/lumen-cli/mcp/transport"
	"github.com/lumen-ai/lumen-cli/mcp/types"
	"github.com/lumen-ai/lumen-cli/str"
)

// DefaultCallTimeout matches the streaming transport's overall bound.
const DefaultCallTimeout = 60 * time.Second

// Invoker runs tool calls through a curl subprocess.
type Invoker struct {
	sessions *session.Store
	command  string
	timeout  time.Duration
	logger   logger.Logger
}

var _ transport.ToolInvoker = (*Invoker)(nil)

// Option configures an Invoker.
type Option func(*Invoker)

// WithCommand overrides the HTTP client binary (curl by default).
func WithCommand(path string) Option {
	return func(i *Invoker) { i.command = path }
}

// WithCallTimeout overrides the overall tool-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.timeout = d }
}

// New returns a subprocess-POST invoker using the given session store.
func New(sessions *session.Store, log logger.Logger, options ...Option) *Invoker {
	i := &Invoker{
		sessions: sessions,
		command:  "curl",
		timeout:  DefaultCallTimeout,
		logger:   log.WithPrefix("[mcp-exec]"),
	}
	for _, option := range options {
		option(i)
	}
	return i
}

// CallTool invokes a remote tool through the subprocess transport.
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

	maxTime := int(i.timeout.Seconds())
	if maxTime < 1 {
		maxTime = 1
	}
	args := []string{
		"-sS", "-N",
		"--max-time", strconv.Itoa(maxTime),
		"-X", "POST",
		"-H", "Content-Type: application/json",
		"-H", "Accept: application/json, text/event-stream",
		"--data-binary", "@-",
		url,
	}

	i.logger.Trace("%s POST %s", i.command, str.MaskAuthQuery(url))
	cmd := exec.CommandContext(ctx, i.command, args...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, mcp.NewToolCallError(tool, url, 0, stderr.String(), errors.New("timed out waiting for result"))
		}
		return nil, mcp.NewToolCallError(tool, url, 0, stderr.String(),
			errors.Wrapf(err, "%s failed: %s", i.command, tail(stderr.String(), 256)))
	}

	value, err := transport.DecodeStream(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, mcp.NewToolCallError(tool, url, 0, tail(stdout.String(), 512), err)
	}
	return value, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
