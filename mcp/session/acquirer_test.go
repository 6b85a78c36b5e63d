package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/mcp"
)

func sseHandler(t *testing.T, fn func(w http.ResponseWriter, r *http.Request, flush func())) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fn(w, r, flusher.Flush)
	}
}

func TestAcquireExtractsSessionID(t *testing.T) {
	var gotRawQuery string
	server := httptest.NewServer(sseHandler(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		gotRawQuery = r.URL.RawQuery
		fmt.Fprint(w, "data: /api/mcp/x/message?sessionId=sess-xyz&Authorization=abc+/?&=\n\n")
		flush()
		// Keep the stream open; the client should cancel rather than drain.
		<-r.Context().Done()
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger())
	endpoint := server.URL + "/api/mcp/x/sse"

	start := time.Now()
	id, err := acquirer.Acquire(context.Background(), endpoint, "abc+/?&=")
	require.NoError(t, err)
	assert.Equal(t, "sess-xyz", id)
	assert.Less(t, time.Since(start), 3*time.Second)

	// The credential must arrive raw, not percent-encoded.
	assert.Equal(t, "Authorization=abc+/?&=", gotRawQuery)
}

func TestAcquireSplitAcrossChunks(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, "data: /message?sessi")
		flush()
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "onId=sess-split")
		flush()
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "&Authorization=k\n\n")
		flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger())
	id, err := acquirer.Acquire(context.Background(), server.URL+"/sse", "k")
	require.NoError(t, err)
	assert.Equal(t, "sess-split", id)
}

func TestAcquireNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger())
	_, err := acquirer.Acquire(context.Background(), server.URL+"/sse", "bad")
	require.Error(t, err)

	var serr *mcp.SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.Status)
}

func TestAcquireTimesOutOnKeepAliveNoise(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		for {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(10 * time.Millisecond):
				fmt.Fprint(w, ": ping\n\n")
				flush()
			}
		}
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger(), WithHandshakeTimeout(150*time.Millisecond))

	start := time.Now()
	_, err := acquirer.Acquire(context.Background(), server.URL+"/sse", "k")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorContains(t, err, "timed out")
}

func TestAcquireScanLimitExceeded(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, strings.Repeat("x", 4096))
		flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger(), WithScanLimit(100))
	_, err := acquirer.Acquire(context.Background(), server.URL+"/sse", "k")
	require.Error(t, err)
	assert.ErrorContains(t, err, "no session id")
}

func TestAcquireStreamEndsWithoutID(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, ": hello\n\n")
		flush()
	}))
	defer server.Close()

	acquirer := NewSSEAcquirer(logger.NewTestLogger())
	_, err := acquirer.Acquire(context.Background(), server.URL+"/sse", "k")
	require.Error(t, err)
	assert.ErrorContains(t, err, "stream ended")
}
