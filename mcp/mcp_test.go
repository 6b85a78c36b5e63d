package mcp

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestAppendRawQueryKeepsCredentialVerbatim(t *testing.T) {
	// The credential must survive with +, /, ?, & and = unencoded.
	got := AppendRawQuery("https://host/api/mcp/x/sse", "Authorization", "abc+/?&=")
	assert.Equal(t, "https://host/api/mcp/x/sse?Authorization=abc+/?&=", got)
}

func TestAppendRawQuerySeparator(t *testing.T) {
	assert.Equal(t, "https://host/sse?Authorization=k", AppendRawQuery("https://host/sse", "Authorization", "k"))
	assert.Equal(t, "https://host/sse?a=1&Authorization=k", AppendRawQuery("https://host/sse?a=1", "Authorization", "k"))
}

func TestSessionURL(t *testing.T) {
	got := SessionURL("https://host/api/mcp/web_search_prime/sse", "tok+/=")
	assert.Equal(t, "https://host/api/mcp/web_search_prime/sse?Authorization=tok+/=", got)
}

func TestMessageURL(t *testing.T) {
	got := MessageURL("https://host/api/mcp/web_reader/sse", "sess-xyz", "tok+/=")
	assert.Equal(t, "https://host/api/mcp/web_reader/message?sessionId=sess-xyz&Authorization=tok+/=", got)
}

func TestEndpointForClass(t *testing.T) {
	assert.Equal(t, "https://api.lumen-ai.dev/api/mcp/web_search_prime/sse", WebSearch.Endpoint("https://api.lumen-ai.dev"))
	assert.Equal(t, "https://api.lumen-ai.dev/api/mcp/repo_reader/sse", RepoReader.Endpoint("https://api.lumen-ai.dev/"))
	assert.True(t, WebReader.Valid())
	assert.False(t, EndpointClass("bogus").Valid())
}

func TestStatusCodeAndAuthError(t *testing.T) {
	err := NewToolCallError("webReader", "https://host/message", 401, "denied", errors.New("denied"))
	wrapped := errors.Wrap(err, "calling tool")
	assert.Equal(t, 401, StatusCode(wrapped))
	assert.True(t, IsAuthError(wrapped))

	serr := NewSessionError("https://host/sse", 500, errors.New("boom"))
	assert.Equal(t, 500, StatusCode(serr))
	assert.False(t, IsAuthError(serr))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
