// Package firms fetches area CSV extracts from the NASA FIRMS API.
package firms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
)

const (
	// DefaultBaseURL is the public FIRMS API host.
	DefaultBaseURL = "https://firms.modaps.eosdis.nasa.gov"

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes int64 = 50 << 20

	userAgent = "firms-wildfire-service"
	rateBurst = 10
)

// AreaRequest selects one area extract. Timeout bounds the whole request
// when positive.
type AreaRequest struct {
	BBox    BBox
	Dataset domain.Dataset
	Days    int
	Timeout time.Duration

	// Mode tags logs and the User-Agent (e.g. "nearby", "region").
	Mode string
}

// Client fetches raw CSV text from the FIRMS area endpoint.
type Client struct {
	apiKey       string
	httpClient   *http.Client
	baseURL      string
	maxBodyBytes int64
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates a FIRMS client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
}

// WithRateLimit limits outbound requests to perMinute, allowing short bursts.
// FIRMS enforces a per-key transaction quota over a 10 minute window. A
// non-positive value removes the limit.
func (c *Client) WithRateLimit(perMinute float64) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perMinute/60), rateBurst)
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchArea performs one GET against the area CSV endpoint and returns the
// body. It never retries. A missing API key fails with
// domain.ErrConfiguration before any I/O; transport failures, timeouts,
// non-2xx statuses and oversized bodies wrap domain.ErrUpstreamUnavailable.
func (c *Client) FetchArea(ctx context.Context, req AreaRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: FIRMS_API_KEY is not set", domain.ErrConfiguration)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: firms request rate limited: %v", domain.ErrUpstreamUnavailable, err)
		}
	}

	u := fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d",
		c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(string(req.Dataset)), req.BBox, req.Days)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	ua := userAgent
	if req.Mode != "" {
		ua = fmt.Sprintf("%s (%s)", userAgent, req.Mode)
	}
	httpReq.Header.Set("User-Agent", ua)

	c.logger.Debug("fetching firms area",
		"mode", req.Mode, "dataset", req.Dataset, "days", req.Days, "bbox", req.BBox.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: firms request: %v", domain.ErrUpstreamUnavailable, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: firms API error: status %d: %s",
			domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read firms body: %v", domain.ErrUpstreamUnavailable, redact(err))
	}
	if int64(len(body)) > c.maxBodyBytes {
		return "", fmt.Errorf("%w: firms body exceeds %d byte limit", domain.ErrUpstreamUnavailable, c.maxBodyBytes)
	}

	return string(body), nil
}

// redact strips the request URL, which embeds the API key, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, context.DeadlineExceeded) {
			return errors.New("request timed out")
		}
		return urlErr.Err
	}
	return err
}
