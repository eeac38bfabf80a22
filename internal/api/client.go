package api

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
	"time"

	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const (
	defaultTimeout = 30 * time.Second
	UserAgent      = "passengerflow-console/1.0"
)

var (
	// ErrUnauthorized is matched by a *StatusError carrying 401
	ErrUnauthorized = errors.New("authorization required")
	// ErrNotFound is matched by a *StatusError carrying 404
	ErrNotFound = errors.New("not found")
)

// StatusError is returned for any non-2xx backend response
type StatusError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d for %s: %s", e.StatusCode, e.URL, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client talks to the passenger-flow backend
type Client struct {
	baseURL      *url.URL
	client       *http.Client
	defaultToken string
	logger       logger.Logger
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token is used when the request context carries none
	Token string
}

func NewClient(opts Options, logger logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		defaultToken: opts.Token,
		logger:       logger.With("component", "backend-client"),
	}, nil
}

type tokenKey struct{}

// WithToken attaches the operator's bearer token to ctx
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := tokenFrom(ctx)
	if token == "" {
		token = c.defaultToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do executes the request and returns the response when the status is 2xx.
// The caller owns the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("Calling backend", "method", req.Method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("executing request to %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
			URL:        req.URL.Path,
		}
		c.logger.Warn("Backend returned error status",
			"status_code", resp.StatusCode,
			"url", req.URL.String(),
			"message", statusErr.Message)
		return nil, statusErr
	}

	return resp, nil
}

// errorMessage prefers the backend's ErrorDetails.message, falling back to "HTTP <code>"
func errorMessage(status int, body []byte) string {
	var details models.ErrorDetails
	if len(body) > 0 && json.Unmarshal(body, &details) == nil && details.Message != "" {
		return details.Message
	}
	return fmt.Sprintf("HTTP %d", status)
}

func (c *Client) doJSON(ctx context.Context, method, target string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// Message returns the operator-facing text of err: the backend's message for
// status errors, the plain error otherwise.
func Message(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized && strings.HasPrefix(statusErr.Message, "HTTP ") {
			return ErrUnauthorized.Error()
		}
		return statusErr.Message
	}
	return err.Error()
}
