// Package host is a minimal stdio-side MCP server: it reads newline-delimited
// JSON-RPC requests from an input stream, dispatches initialize, tools/list,
// and tools/call, and writes one response per line. It exists so local agents
// can drive this client's tools over the same protocol the remote endpoints
// speak. All diagnostics go to the logger; stdout carries protocol frames only.
package host

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp/types"
)

// Handler executes a tool call. The returned value is rendered into a text
// content item (strings as-is, everything else as JSON).
type Handler func(ctx context.Context, arguments map[string]any) (any, error)

// Tool is one callable tool exposed by the host.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Server serves the MCP stdio protocol over a reader/writer pair.
type Server struct {
	name    string
	version string
	in      io.Reader
	out     io.Writer
	logger  logger.Logger

	mu    sync.Mutex
	tools []Tool
}

// New returns a stdio host announcing itself with the given name and version.
// The caller chooses the streams; the CLI passes os.Stdin and os.Stdout.
func New(name, version string, in io.Reader, out io.Writer, log logger.Logger) *Server {
	return &Server{
		name:    name,
		version: version,
		in:      in,
		out:     out,
		logger:  log.WithPrefix("[host]"),
	}
}

// Register adds a tool. Registering twice under the same name replaces the
// earlier definition.
func (s *Server) Register(tool Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.tools {
		if existing.Name == tool.Name {
			s.tools[i] = tool
			return
		}
	}
	s.tools = append(s.tools, tool)
}

// inbound mirrors types.Request but keeps id and params raw so the id is
// echoed back byte for byte whatever its JSON type.
type inbound struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Run serves requests until the input stream ends or the context is
// cancelled. Malformed lines get a parse-error response; notifications
// (requests without an id) are never answered.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			s.handleLine(ctx, []byte(trimmed))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "reading request stream")
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req inbound
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("dropping malformed request line: %v", err)
		s.writeError(nil, types.CodeParseError, "parse error")
		return
	}
	if req.Method == "" {
		s.writeError(req.ID, types.CodeInvalidRequest, "missing method")
		return
	}

	// Notifications never get a response, whatever the method.
	if req.ID == nil {
		s.logger.Trace("ignoring notification %s", req.Method)
		return
	}

	switch req.Method {
	case types.MethodInitialize:
		s.writeResult(req.ID, map[string]any{
			"protocolVersion": types.ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
		})
	case types.MethodToolsList:
		s.writeResult(req.ID, map[string]any{"tools": s.listTools()})
	case types.MethodToolsCall:
		s.handleCall(ctx, req)
	default:
		s.writeError(req.ID, types.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) listTools() []types.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Tool, 0, len(s.tools))
	for _, tool := range s.tools {
		schema := tool.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, types.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return out
}

func (s *Server) lookup(name string) (Tool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

func (s *Server) handleCall(ctx context.Context, req inbound) {
	var params types.ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, types.CodeInvalidParams, "invalid tools/call params")
		return
	}
	tool, ok := s.lookup(params.Name)
	if !ok {
		s.writeError(req.ID, types.CodeInvalidParams, "unknown tool: "+params.Name)
		return
	}

	value, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		// Tool failures ride inside the result, marked isError, so the
		// caller can distinguish them from protocol faults.
		s.logger.Debug("tool %s failed: %v", params.Name, err)
		s.writeResult(req.ID, map[string]any{
			"content": []types.ContentItem{{Type: "text", Text: err.Error()}},
			"isError": true,
		})
		return
	}

	text, ok := value.(string)
	if !ok {
		buf, err := json.Marshal(value)
		if err != nil {
			s.writeError(req.ID, types.CodeInternalError, "unencodable tool result")
			return
		}
		text = string(buf)
	}
	s.writeResult(req.ID, map[string]any{
		"content": []types.ContentItem{{Type: "text", Text: text}},
	})
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	buf, err := json.Marshal(result)
	if err != nil {
		s.writeError(id, types.CodeInternalError, "unencodable result")
		return
	}
	s.write(types.Response{JSONRPC: types.JSONRPCVersion, ID: rawID(id), Result: buf})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(types.Response{
		JSONRPC: types.JSONRPCVersion,
		ID:      rawID(id),
		Error:   &types.Error{Code: code, Message: message},
	})
}

func (s *Server) write(resp types.Response) {
	buf, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response: %v", err)
		return
	}
	buf = append(buf, '\n')
	if _, err := s.out.Write(buf); err != nil {
		s.logger.Error("failed to write response: %v", err)
	}
}

// rawID keeps a nil id truly absent from the envelope instead of encoding a
// typed-nil json.RawMessage as "null".
func rawID(id json.RawMessage) any {
	if id == nil {
		return nil
	}
	return id
}
