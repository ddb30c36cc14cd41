// Package listings reads job listings from the listing service.
package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kind-match/internal/models"

	"go.uber.org/zap"
)

const maxAttempts = 3

var errNotFound = errors.New("listing service: not found")

// Client implements the listing store on top of the listing service REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
	backoff    time.Duration
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:    logger,
		userAgent: "kind-match/1.0",
		backoff:   time.Second,
	}
}

type listResponse struct {
	Items []*models.Listing `json:"items"`
}

// GetByID returns nil when the listing does not exist.
func (c *Client) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing

	err := c.get(ctx, "/listings/"+url.PathEscape(id), nil, &listing)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return &listing, nil
}

func (c *Client) ListActiveByOwner(ctx context.Context, employerID int64) ([]*models.Listing, error) {
	params := url.Values{}
	params.Set("status", string(models.ListingActive))
	params.Set("owner", strconv.FormatInt(employerID, 10))

	var resp listResponse
	if err := c.get(ctx, "/listings", params, &resp); err != nil {
		return nil, fmt.Errorf("list listings of %d: %w", employerID, err)
	}
	return resp.Items, nil
}

func (c *Client) ListActive(ctx context.Context) ([]*models.Listing, error) {
	params := url.Values{}
	params.Set("status", string(models.ListingActive))

	var resp listResponse
	if err := c.get(ctx, "/listings", params, &resp); err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	return resp.Items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// doRequest retries transport errors, 429 and 5xx with linear backoff.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			c.logger.Debug("retrying request",
				zap.String("url", fullURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, status, err := c.once(ctx, method, fullURL)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusNotFound:
			return nil, errNotFound
		case status == http.StatusTooManyRequests || status >= 500:
			c.logger.Warn("listing service unavailable",
				zap.String("url", fullURL),
				zap.Int("status", status),
			)
			lastErr = fmt.Errorf("unexpected status code: %d", status)
		default:
			c.logger.Error("listing service error",
				zap.String("url", fullURL),
				zap.Int("status", status),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("unexpected status code: %d", status)
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) once(ctx context.Context, method, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
