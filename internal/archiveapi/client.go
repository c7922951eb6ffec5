package archiveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/config"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 4096
	requestIDHeader = "X-Request-ID"
)

// HTTPDoer describes the HTTP client used by the archive client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.StatusCode, body)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Client talks to the archive metadata editor backend.
type Client struct {
	baseURL      string
	token        string
	httpClient   HTTPDoer
	streamClient HTTPDoer
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the client used for plain JSON endpoints.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithStreamClient overrides the client used for streaming endpoints, which
// must not carry an overall request timeout.
func WithStreamClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.streamClient = client
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout sets the timeout of the default plain-endpoint client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "archive client", "base url required", nil)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "archive client", "parse base url", err)
	}
	client := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		streamClient: &http.Client{},
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "archiveapi")
	return client, nil
}

// NewFromConfig builds a client from the [archive] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "archive client", "config required", nil)
	}
	base := []Option{
		WithTimeout(cfg.RequestTimeout()),
		WithToken(cfg.Archive.APIToken),
		WithLogger(logger),
	}
	return New(cfg.Archive.BaseURL, append(base, opts...)...)
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set(requestIDHeader, rid)
	}
	return req, nil
}

func jsonBody(payload any) (io.Reader, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// send issues the request and returns the raw body for any status. Only
// transport failures are reported as errors.
func (c *Client) send(ctx context.Context, doer HTTPDoer, method, path string, query url.Values, payload any) (*http.Response, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", path, "encode request", err)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", path, "build request", err)
	}
	start := time.Now()
	resp, err := doer.Do(req)
	latency := time.Since(start)
	if err != nil {
		logging.WithContext(ctx, c.logger).Debug("archive request failed",
			logging.String("path", path),
			logging.Duration("latency", latency),
			logging.Error(err),
		)
		return nil, services.Wrap(services.ErrNetwork, "", path, "request failed", err)
	}
	logging.WithContext(ctx, c.logger).Debug("archive request",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)
	return resp, nil
}

func statusError(path string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// doJSON performs a JSON round trip and decodes a 2xx response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	resp, err := c.send(ctx, c.httpClient, method, path, query, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return services.Wrap(services.ErrNetwork, "", path, "unexpected status", statusError(path, resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrNetwork, "", path, "decode response", err)
	}
	return nil
}

// openStream posts payload and returns the open body of a 2xx response.
func (c *Client) openStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	resp, err := c.send(ctx, c.streamClient, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, services.Wrap(services.ErrNetwork, "", path, "unexpected status", statusError(path, resp))
	}
	return resp.Body, nil
}
