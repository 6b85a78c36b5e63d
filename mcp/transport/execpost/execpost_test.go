package execpost

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
	"github.com/lumen-ai/lumen-cli/mcp/session"
	"github.com/lumen-ai/lumen-cli/mcp/types"
)

type stubAcquirer struct {
	sessionID string
}

func (a *stubAcquirer) Acquire(_ context.Context, _, _ string) (string, error) {
	return a.sessionID, nil
}

// fakeCurl writes a shell script that records its stdin and argv, then emits
// the given response on stdout. The response goes through a file so no byte is
// lost to shell quoting.
func fakeCurl(t *testing.T, response string) (command, stdinFile, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake curl script requires a POSIX shell")
	}
	dir := t.TempDir()
	stdinFile = filepath.Join(dir, "stdin")
	argsFile = filepath.Join(dir, "args")
	responseFile := filepath.Join(dir, "response")
	command = filepath.Join(dir, "fake-curl")
	require.NoError(t, os.WriteFile(responseFile, []byte(response), 0o600))
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s ' \"$@\" > %q\ncat > %q\ncat %q\n", argsFile, stdinFile, responseFile)
	require.NoError(t, os.WriteFile(command, []byte(script), 0o755))
	return command, stdinFile, argsFile
}

func newTestInvoker(t *testing.T, options ...Option) *Invoker {
	t.Helper()
	log := logger.NewTestLogger()
	store := session.NewStore(session.NewMemoryBackend(), &stubAcquirer{sessionID: "sess-77"}, log)
	return New(store, log, options...)
}

func TestCallToolThroughSubprocess(t *testing.T) {
	response := `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{\"found\":3}"}]}}`
	command, stdinFile, argsFile := fakeCurl(t, response)

	invoker := newTestInvoker(t, WithCommand(command))
	value, err := invoker.CallTool(context.Background(), "https://api.example.dev/search/sse", "abc+/?&=", "webSearch", map[string]any{"search_query": "go"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"found": float64(3)}, value)

	// The JSON-RPC envelope travels on stdin.
	stdin, err := os.ReadFile(stdinFile)
	require.NoError(t, err)
	var req types.Request
	require.NoError(t, json.Unmarshal(stdin, &req))
	assert.Equal(t, types.MethodToolsCall, req.Method)

	// The message URL keeps the credential raw.
	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "https://api.example.dev/search/message?sessionId=sess-77&Authorization=abc+/?&=")
	assert.Contains(t, string(args), "--data-binary")
}

func TestCallToolSubprocessStreamedResponse(t *testing.T) {
	response := "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"content\":[{\"text\":\"streamed\"}]}}\n\n"
	command, _, _ := fakeCurl(t, response)

	invoker := newTestInvoker(t, WithCommand(command))
	value, err := invoker.CallTool(context.Background(), "https://api.example.dev/search/sse", "key", "webSearch", nil)
	require.NoError(t, err)
	assert.Equal(t, "streamed", value)
}

func TestCallToolSubprocessRemoteError(t *testing.T) {
	response := `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"bad tool"}}`
	command, _, _ := fakeCurl(t, response)

	invoker := newTestInvoker(t, WithCommand(command))
	_, err := invoker.CallTool(context.Background(), "https://api.example.dev/search/sse", "key", "nope", nil)
	require.Error(t, err)
	var callErr *mcp.ToolCallError
	require.ErrorAs(t, err, &callErr)
	assert.Contains(t, err.Error(), "bad tool")
}

func TestCallToolSubprocessSpawnFailure(t *testing.T) {
	invoker := newTestInvoker(t, WithCommand(filepath.Join(t.TempDir(), "no-such-binary")))
	_, err := invoker.CallTool(context.Background(), "https://api.example.dev/search/sse", "key", "webSearch", nil)
	require.Error(t, err)
	var callErr *mcp.ToolCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "webSearch", callErr.Tool)
}

func TestCallToolSubprocessTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake curl script requires a POSIX shell")
	}
	dir := t.TempDir()
	command := filepath.Join(dir, "slow-curl")
	// Redirect so the sleeping child does not hold the output pipes open
	// after the shell itself is killed.
	require.NoError(t, os.WriteFile(command, []byte("#!/bin/sh\nsleep 30 >/dev/null 2>&1\n"), 0o755))

	invoker := newTestInvoker(t, WithCommand(command), WithCallTimeout(200*time.Millisecond))
	start := time.Now()
	_, err := invoker.CallTool(context.Background(), "https://api.example.dev/search/sse", "key", "webSearch", nil)
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}
