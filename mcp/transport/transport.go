// Package transport implements the client side of the remote tool-calling
// protocol: building JSON-RPC tools/call requests, decoding the service's
// mixed bare-JSON / SSE-framed responses, and normalizing tool output. Two
// interchangeable invokers exist: an in-process streaming one (http) and a
// subprocess-POST fallback (execpost).
package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumen-ai/lumen-cli/mcp/types"
)

// ToolInvoker issues tool calls against a remote MCP endpoint. Both transport
// variants satisfy it so callers can swap them via configuration.
type ToolInvoker interface {
	// CallTool invokes the named tool and returns the normalized result.
	// Failures are *mcp.ToolCallError.
	CallTool(ctx context.Context, endpoint, credential, tool string, arguments map[string]any) (any, error)

	// ListTools fetches the endpoint's tool inventory.
	ListTools(ctx context.Context, endpoint, credential string) (any, error)
}

// NewCallRequest builds a tools/call envelope. Request ids only need to be
// unique within the process lifetime.
func NewCallRequest(tool string, arguments map[string]any) types.Request {
	return types.NewRequest(uuid.NewString(), types.MethodToolsCall, types.ToolCallParams{
		Name:      tool,
		Arguments: arguments,
	})
}

// NewListRequest builds a tools/list envelope.
func NewListRequest() types.Request {
	return types.NewRequest(uuid.NewString(), types.MethodToolsList, nil)
}
