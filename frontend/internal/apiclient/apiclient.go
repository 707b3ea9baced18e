package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"golang.org/x/time/rate"
)

// APIClient struct handles all communication with the post and file services.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client

	// previewLimiter throttles link preview lookups. nil means unlimited.
	previewLimiter *rate.Limiter
}

type Option func(*APIClient)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *APIClient) {
		c.HttpClient.Timeout = d
	}
}

// WithPreviewRate limits preview lookups to perSecond with the given burst.
// A zero rate leaves previews unthrottled.
func WithPreviewRate(perSecond float64, burst int) Option {
	return func(c *APIClient) {
		if perSecond <= 0 {
			c.previewLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.previewLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a new client for interacting with the backend.
func New(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		BaseURL:    baseURL,
		HttpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do is the single helper for making API requests. The session token, when
// present, is sent as a bearer credential.
func (c *APIClient) do(ctx context.Context, s domain.Session, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !s.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("backend unavailable: %v", err),
			StatusCode: http.StatusBadGateway,
			Err:        internal_errors.ErrTransport,
		}
	}
	return resp, nil
}

// statusError maps a non-2xx upstream response to one of the client's error
// kinds. The body is drained so the connection can be reused.
func statusError(resp *http.Response, what string) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &internal_errors.ErrorWithStatusCode{
			Message: what + " not found", StatusCode: http.StatusNotFound, Err: internal_errors.ErrNotFound,
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &internal_errors.ErrorWithStatusCode{
			Message: what + ": access denied", StatusCode: resp.StatusCode, Err: internal_errors.ErrTransport,
		}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return &internal_errors.ErrorWithStatusCode{
			Message: what + ": upstream rejected the request", StatusCode: http.StatusBadGateway, Err: internal_errors.ErrUnprocessable,
		}
	default:
		return &internal_errors.ErrorWithStatusCode{
			Message: fmt.Sprintf("%s: upstream returned %d", what, resp.StatusCode), StatusCode: http.StatusBadGateway, Err: internal_errors.ErrTransport,
		}
	}
}
