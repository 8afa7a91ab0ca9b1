package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
)

// Fetcher retrieves the raw nested body of one directory page.
type Fetcher interface {
	FetchDirectory(ctx context.Context, url string) ([]models.NestedNode, error)
}

// Client is the HTTP Fetcher for the remote directory. Failures are wrapped
// in ErrFetchFailed; callers decide whether a failure is user-visible.
type Client struct {
	httpClient *http.Client
	userAgent  string
	attempts   uint
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithAttempts sets the total number of fetch attempts per call.
func WithAttempts(attempts uint) ClientOption {
	return func(c *Client) { c.attempts = attempts }
}

// NewClient creates a directory fetch client.
func NewClient(userAgent string, timeout time.Duration, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		attempts:   3,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDirectory GETs url and decodes the nested node body, retrying
// transient failures with backoff.
func (c *Client) FetchDirectory(ctx context.Context, url string) ([]models.NestedNode, error) {
	var body []models.NestedNode

	err := retry.Do(
		func() error {
			nodes, err := c.fetchOnce(ctx, url)
			if err != nil {
				return err
			}
			body = nodes
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("directory fetch retry",
				"url", url,
				"attempt", attempt+1,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetchFailed, url, err)
	}

	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]models.NestedNode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	var body []models.NestedNode
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decode body: %w", err))
	}

	return body, nil
}
