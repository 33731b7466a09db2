// Package client talks JSON over HTTP to the Auth and Content APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/content"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/users"
)

// DefaultTimeout bounds every request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// RequestIDHeader carries a per-request identifier.
const RequestIDHeader = "X-Request-ID"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenSource returns the current bearer token, or "" when logged out.
type TokenSource func() string

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP backend.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithTimeout sets the timeout of the default HTTP backend.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken attaches a bearer token to every request.
func WithToken(source TokenSource) Option {
	return func(c *Client) {
		c.token = source
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client implements auth.API, content.API and users.API.
type Client struct {
	base    *url.URL
	http    HTTPDoer
	timeout time.Duration
	token   TokenSource
	logger  *slog.Logger
}

var (
	_ auth.API    = (*Client)(nil)
	_ content.API = (*Client)(nil)
	_ users.API   = (*Client)(nil)
)

// New builds a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base, err := url.Parse(trimmed)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, goerr.New("invalid api base url", goerr.V("url", baseURL))
	}
	c := &Client{base: base, timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logging.Default()
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Login implements auth.API.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	var out auth.Identity
	err := c.do(ctx, http.MethodPost, "/api/login", nil, body, "", &out)
	return out, err
}

// Verify implements auth.API.
func (c *Client) Verify(ctx context.Context, token string) (auth.Identity, error) {
	var out auth.Identity
	err := c.do(ctx, http.MethodGet, "/api/verify", nil, nil, token, &out)
	return out, err
}

// FetchGenres implements content.API.
func (c *Client) FetchGenres(ctx context.Context, query string) ([]model.Option, error) {
	return c.search(ctx, "/api/genres", query)
}

// FetchMaturityRatings implements content.API.
func (c *Client) FetchMaturityRatings(ctx context.Context, query string) ([]model.Option, error) {
	return c.search(ctx, "/api/maturity-ratings", query)
}

func (c *Client) search(ctx context.Context, path, query string) ([]model.Option, error) {
	params := url.Values{}
	params.Set("search", query)
	var out struct {
		Data []model.Option `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, params, nil, "", &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []model.Option{}, nil
	}
	return out.Data, nil
}

// FetchContent implements content.API.
func (c *Client) FetchContent(ctx context.Context, id int64) (content.Content, error) {
	var out content.Content
	err := c.do(ctx, http.MethodGet, contentPath(id), nil, nil, "", &out)
	return out, err
}

// CreateContent implements content.API.
func (c *Client) CreateContent(ctx context.Context, payload content.Payload) (content.Content, error) {
	var out content.Content
	err := c.do(ctx, http.MethodPost, "/api/contents", nil, payload, "", &out)
	return out, err
}

// UpdateContent implements content.API.
func (c *Client) UpdateContent(ctx context.Context, id int64, payload content.Payload) (content.Content, error) {
	var out content.Content
	err := c.do(ctx, http.MethodPut, contentPath(id), nil, payload, "", &out)
	return out, err
}

// CreateUser implements users.API.
func (c *Client) CreateUser(ctx context.Context, payload users.Payload) (users.User, error) {
	var out users.User
	err := c.do(ctx, http.MethodPost, "/api/users", nil, payload, "", &out)
	return out, err
}

func contentPath(id int64) string {
	return "/api/contents/" + strconv.FormatInt(id, 10)
}

// do sends one request. token overrides the TokenSource when non-empty.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "marshal request body", goerr.V("path", path))
		}
		reader = bytes.NewReader(data)
	}

	target := c.base.JoinPath(path)
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return goerr.Wrap(err, "build request", goerr.V("path", path))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" && c.token != nil {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed",
			goerr.V("method", method), goerr.V("path", path), goerr.V("request_id", requestID))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug("api call",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, requestID)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "decode response", goerr.V("path", path), goerr.V("request_id", requestID))
	}
	return nil
}

// APIError is a non-2xx answer. It satisfies form.Rejection so remote field
// errors land on the same fields as local validation.
type APIError struct {
	Status    int                 `json:"-"`
	RequestID string              `json:"-"`
	Message   string              `json:"message"`
	Fields    map[string][]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// FormMessage returns the top-level message.
func (e *APIError) FormMessage() string {
	return e.Message
}

// FieldMessages returns the per-field messages.
func (e *APIError) FieldMessages() map[string][]string {
	return e.Fields
}

// Unauthorized reports whether the token was missing or rejected.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func decodeError(resp *http.Response, requestID string) error {
	apiErr := &APIError{Status: resp.StatusCode, RequestID: requestID}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Fields  map[string][]string `json:"fields"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		apiErr.Message = strings.TrimSpace(envelope.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(envelope.Error)
		}
		apiErr.Fields = envelope.Fields
		if len(apiErr.Fields) == 0 {
			apiErr.Fields = envelope.Errors
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 512 {
		apiErr.Message = text
	}
	return apiErr
}
