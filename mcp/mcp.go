package mcp

import "strings"

// EndpointClass identifies one of the remote MCP capabilities. Each class has
// its own SSE endpoint but the protocol shape is identical across them.
type EndpointClass string

const (
	WebSearch  EndpointClass = "webSearch"
	WebReader  EndpointClass = "webReader"
	RepoReader EndpointClass = "repoReader"
)

// slugs are the path segments the service mounts each capability under.
var slugs = map[EndpointClass]string{
	WebSearch:  "web_search_prime",
	WebReader:  "web_reader",
	RepoReader: "repo_reader",
}

// Valid reports whether the class is one of the known capabilities.
func (c EndpointClass) Valid() bool {
	_, ok := slugs[c]
	return ok
}

// Endpoint returns the SSE endpoint URL for this class under the given base URL.
func (c EndpointClass) Endpoint(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/api/mcp/" + slugs[c] + "/sse"
}

// Classes returns all known endpoint classes.
func Classes() []EndpointClass {
	return []EndpointClass{WebSearch, WebReader, RepoReader}
}

// AppendRawQuery appends key=value to a URL using plain string concatenation.
// The value is deliberately NOT percent-encoded: the service's query parser
// expects the raw credential bytes, including +, /, ?, & and =. Encoding the
// value breaks authentication.
func AppendRawQuery(u, key, raw string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + key + "=" + raw
}

// SessionURL builds the SSE handshake URL for an endpoint and raw credential.
func SessionURL(endpoint, credential string) string {
	return AppendRawQuery(endpoint, "Authorization", credential)
}

// MessageURL derives the message-submission URL from an SSE endpoint: the
// known /sse suffix is stripped and the session id plus raw credential are
// appended as query parameters.
func MessageURL(endpoint, sessionID, credential string) string {
	base := strings.TrimSuffix(endpoint, "/sse")
	u := AppendRawQuery(base+"/message", "sessionId", sessionID)
	return AppendRawQuery(u, "Authorization", credential)
}
