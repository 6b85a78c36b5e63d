package host

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp/types"
)

// serve runs the host over the given input lines and returns one decoded
// response per output line.
func serve(t *testing.T, server func(*Server), input string) []types.Response {
	t.Helper()
	var out bytes.Buffer
	s := New("lumen", "test", strings.NewReader(input), &out, logger.NewTestLogger())
	if server != nil {
		server(s)
	}
	require.NoError(t, s.Run(context.Background()))

	var responses []types.Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp types.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "repeats its input",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			return text, nil
		},
	}
}

func TestInitialize(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}` + "\n"
	responses := serve(t, nil, input)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	var result map[string]any
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	assert.Equal(t, types.ProtocolVersion, result["protocolVersion"])
	info, ok := result["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lumen", info["name"])
}

func TestToolsList(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":"a","method":"tools/list"}` + "\n"
	responses := serve(t, func(s *Server) { s.Register(echoTool()) }, input)
	require.Len(t, responses, 1)

	var result struct {
		Tools []types.Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "echo", result.Tools[0].Name)
	assert.Equal(t, "repeats its input", result.Tools[0].Description)
	assert.NotNil(t, result.Tools[0].InputSchema)
}

func TestToolsCall(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}` + "\n"
	responses := serve(t, func(s *Server) { s.Register(echoTool()) }, input)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	var result struct {
		Content []types.ContentItem `json:"content"`
		IsError bool                `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "hi", result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestToolsCallStructuredResultEncodedAsJSON(t *testing.T) {
	tool := Tool{
		Name: "lookup",
		Handler: func(context.Context, map[string]any) (any, error) {
			return map[string]any{"count": 3}, nil
		},
	}
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"lookup"}}` + "\n"
	responses := serve(t, func(s *Server) { s.Register(tool) }, input)
	require.Len(t, responses, 1)

	var result struct {
		Content []types.ContentItem `json:"content"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	require.Len(t, result.Content, 1)
	assert.JSONEq(t, `{"count":3}`, result.Content[0].Text)
}

func TestToolFailureReportedAsErrorResult(t *testing.T) {
	tool := Tool{
		Name: "broken",
		Handler: func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("upstream unavailable")
		},
	}
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"broken"}}` + "\n"
	responses := serve(t, func(s *Server) { s.Register(tool) }, input)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error, "tool failures are results, not protocol errors")

	var result struct {
		Content []types.ContentItem `json:"content"`
		IsError bool                `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "upstream unavailable")
}

func TestUnknownToolIsInvalidParams(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ghost"}}` + "\n"
	responses := serve(t, nil, input)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, types.CodeInvalidParams, responses[0].Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"resources/list"}` + "\n"
	responses := serve(t, nil, input)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, types.CodeMethodNotFound, responses[0].Error.Code)
}

func TestNotificationsGetNoResponse(t *testing.T) {
	// Known methods without an id are notifications too and must stay silent.
	input := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05"}}` + "\n" +
		`{"jsonrpc":"2.0","method":"tools/list"}` + "\n" +
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"
	responses := serve(t, func(s *Server) { s.Register(echoTool()) }, input)
	require.Len(t, responses, 1)
	assert.Equal(t, float64(2), responses[0].ID)
}

func TestMalformedLineGetsParseError(t *testing.T) {
	input := "this is not json\n" +
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"
	responses := serve(t, nil, input)
	require.Len(t, responses, 2)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, types.CodeParseError, responses[0].Error.Code)
	assert.Nil(t, responses[1].Error)
}

func TestRegisterReplacesByName(t *testing.T) {
	first := echoTool()
	second := echoTool()
	second.Description = "replacement"
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"
	responses := serve(t, func(s *Server) {
		s.Register(first)
		s.Register(second)
	}, input)

	var result struct {
		Tools []types.Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "replacement", result.Tools[0].Description)
}

func TestRunStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	s := New("lumen", "test", strings.NewReader(""), &out, logger.NewTestLogger())
	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, out.String())
}
