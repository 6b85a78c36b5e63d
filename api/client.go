// Package api is the HTTP client for the provider's REST surface (chat and
// vision completions). It is a plain bearer-token JSON API, unlike the MCP
// endpoints, so credentials go in the Authorization header here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lumen-ai/lumen-cli/logger"
	"github.com/lumen-ai/lumen-cli/resilience"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

// Client talks to the provider REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	retry   resilience.RetryConfig
	logger  logger.Logger
}

// Error is a failed API call. Status is zero when the failure happened before
// a response arrived.
type Error struct {
	URL      string
	Method   string
	Status   int
	Body     string
	TheError error
}

func (e *Error) Error() string {
	if e == nil || e.TheError == nil {
		return ""
	}
	return e.TheError.Error()
}

func (e *Error) Unwrap() error { return e.TheError }

func NewError(url, method string, status int, body string, err error) *Error {
	return &Error{
		URL:      url,
		Method:   method,
		Status:   status,
		Body:     body,
		TheError: err,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(config resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = config }
}

// New returns an API client for the given base URL and bearer token.
func New(log logger.Logger, baseURL, token string, options ...Option) *Client {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = isTransient
	c := &Client{
		baseURL: baseURL,
		token:   token,
		client:  http.DefaultClient,
		retry:   retry,
		logger:  log.WithPrefix("[api]"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func UserAgent() string {
	gitSHA := Commit
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitSHA = setting.Value
			}
		}
	}
	return "Lumen CLI/" + Version + " (" + gitSHA + ")"
}

// transientError marks a failure worth retrying: connection resets, truncated
// responses, and overload statuses.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var t *transientError
	return errors.As(err, &t)
}

func retryableFailure(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
			return true
		}
		if strings.Contains(err.Error(), "EOF") {
			return true
		}
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		}
	}
	return false
}

// Do sends one JSON request and decodes the JSON response into response (when
// non-nil). Transient failures are retried with exponential backoff; all other
// failures return an *Error.
func (c *Client) Do(ctx context.Context, method, pathParam string, payload any, response any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return NewError(c.baseURL, method, 0, "", errors.Wrap(err, "parsing base url"))
	}

	if i := strings.Index(pathParam, "?"); i != -1 {
		u.RawQuery = pathParam[i+1:]
		pathParam = pathParam[:i]
	}
	basePath := u.Path
	switch {
	case pathParam == "":
	case basePath == "" || basePath == "/":
		u.Path = pathParam
	default:
		u.Path = path.Join(basePath, pathParam)
	}

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return NewError(u.String(), method, 0, "", errors.Wrap(err, "marshalling payload"))
		}
	}
	c.logger.Trace("sending request: %s %s", method, u.String())

	var respBody []byte
	var status int
	var contentType string

	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
		if err != nil {
			return NewError(u.String(), method, 0, "", errors.Wrap(err, "creating request"))
		}
		req.Header.Set("User-Agent", UserAgent())
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if retryableFailure(resp, err) {
			if resp != nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return &transientError{err: errors.Newf("request failed with status %d", resp.StatusCode)}
			}
			return &transientError{err: err}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return NewError(u.String(), method, 0, "", errors.Wrap(err, "sending request"))
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		contentType = resp.Header.Get("content-type")
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return NewError(u.String(), method, status, "", errors.Wrap(err, "reading response body"))
		}
		return nil
	}

	start := time.Now()
	if err := resilience.Retry(ctx, c.retry, attempt); err != nil {
		var t *transientError
		if errors.As(err, &t) {
			return NewError(u.String(), method, 0, "", t.err)
		}
		return err
	}
	c.logger.Debug("response status %d in %s", status, time.Since(start))

	if status > 299 {
		message := fmt.Sprintf("request failed with status %d", status)
		if strings.Contains(contentType, "application/json") {
			var failure struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
				Message string `json:"message"`
			}
			if json.Unmarshal(respBody, &failure) == nil {
				if failure.Error.Message != "" {
					message = failure.Error.Message
				} else if failure.Message != "" {
					message = failure.Message
				}
			}
		}
		return NewError(u.String(), method, status, string(respBody), errors.New(message))
	}

	if response != nil {
		if err := json.Unmarshal(respBody, response); err != nil {
			return NewError(u.String(), method, status, string(respBody), errors.Wrap(err, "decoding response"))
		}
	}
	return nil
}

// StatusCode extracts the HTTP status from an API error chain, zero when
// there is none.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAuthError reports whether the error is a credential problem.
func IsAuthError(err error) bool {
	status := StatusCode(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
