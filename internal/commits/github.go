package commits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/pkg/metrics"
	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/time/rate"
)

const maxPayloadBytes = 10 << 20

type GitHubConfig struct {
	Token     string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
	UserAgent string
}

func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0)), validation.Max(5*time.Minute)),
		validation.Field(&c.RateLimit, validation.Min(float64(0))),
		validation.Field(&c.RateBurst, validation.Min(0)),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// GitHubClient fetches commit lists from the GitHub REST API.
type GitHubClient struct {
	http    *http.Client
	limiter *rate.Limiter
	config  *GitHubConfig
	logger  *logger.Logger
}

func NewGitHubClient(config *GitHubConfig, logger *logger.Logger) (*GitHubClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid github config: %w", err)
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &GitHubClient{
		http:    &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		config:  config,
		logger:  logger.Component("commits/github"),
	}, nil
}

func (c *GitHubClient) Fetch(ctx context.Context, endpoint string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	payload, err := c.fetch(ctx, endpoint)

	result := "ok"
	if err != nil {
		result = "error"
		c.logger.Warn("commit fetch failed", "endpoint", endpoint, "error", err)
	}
	metrics.ObserveUpstreamFetch(result, time.Since(start))

	return payload, err
}

func (c *GitHubClient) fetch(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get commits: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxPayloadBytes {
		return nil, errors.New("response body too large")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, errors.New("malformed json response")
	}

	return json.RawMessage(body), nil
}
