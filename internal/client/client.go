// Package client implements the Melo backend HTTP client.
//
// The client covers the REST contract the chat service exposes:
// - POST /auth/signup, POST /auth/login
// - POST /chat
// - GET /conversations, GET /conversations/{id}/messages
// - DELETE /conversations/{id}, POST /conversations/{id}/end
// - POST /conversations/cleanup
// - GET /health
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/domain"
)

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// RequestIDHeader carries a per-request UUID for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// Client is the Melo backend HTTP client. Deadlines come from the caller's
// context; the underlying http.Client has no timeout of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	// Numeric-looking ids the backend sent as JSON strings; they go back
	// out as strings.
	quotedUsers sync.Map
	quotedConvs sync.Map
}

func (c *Client) isQuoted(ids *sync.Map) func(string) bool {
	return func(id string) bool {
		_, ok := ids.Load(id)
		return ok
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for per-request debug entries.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the failure envelope the backend uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError is a non-2xx response before it is mapped into the domain taxonomy.
type statusError struct {
	StatusCode int
	Reason     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Reason)
}

func reasonFromBody(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

// do sends one request and decodes a 2xx JSON body into respBody (when
// non-nil). Network failures, timeouts and undecodable bodies come back as
// TransportError; non-2xx responses come back as *statusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.NewTransportError("request timed out", 0, err)
		}
		return domain.NewTransportError("backend unreachable", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxResponseSize+1 to detect oversized responses while still accepting
	// responses exactly at the limit.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return domain.NewTransportError("reading response", resp.StatusCode, err)
	}
	if int64(len(data)) > maxResponseSize {
		return domain.NewTransportError(
			fmt.Sprintf("response exceeds maximum size of %d bytes", maxResponseSize), resp.StatusCode, nil)
	}

	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{StatusCode: resp.StatusCode, Reason: reasonFromBody(resp.StatusCode, data)}
	}
	if respBody == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		return domain.NewTransportError("malformed response", resp.StatusCode, err)
	}
	return nil
}

// general maps a non-2xx response for data endpoints: 404 is NotFound,
// everything else is Transport.
func general(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	if se.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError(se.Reason)
	}
	return domain.NewTransportError(se.Reason, se.StatusCode, nil)
}

// authFailure maps a non-2xx response from the auth endpoints to AuthError.
func authFailure(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	return domain.NewAuthError(se.Reason, se.StatusCode)
}
