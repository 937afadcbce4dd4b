package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/coincollector/internal/reliability"
)

const productsPath = "/v1/users/~current/skills/~current/inSkillProducts"

// HTTPClient calls the platform monetization service using the API endpoint
// and access token carried by each request.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
}

// NewHTTPClient builds a client. fallbackEndpoint is used when a request does
// not name its own API endpoint.
func NewHTTPClient(fallbackEndpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		endpoint:    strings.TrimRight(strings.TrimSpace(fallbackEndpoint), "/"),
		client:      &http.Client{Timeout: timeout},
		maxAttempts: 2,
		backoffBase: 100 * time.Millisecond,
	}
}

type productsResponse struct {
	InSkillProducts []Product `json:"inSkillProducts"`
}

func (c *HTTPClient) Products(ctx context.Context, req Request) ([]Product, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt-1, c.backoffBase, time.Second)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
			case <-time.After(wait):
			}
		}
		products, err := c.fetch(ctx, req)
		if err == nil {
			return products, nil
		}
		lastErr = err
		if !reliability.IsRetryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (c *HTTPClient) fetch(ctx context.Context, req Request) ([]Product, error) {
	base := strings.TrimRight(strings.TrimSpace(req.APIEndpoint), "/")
	if base == "" {
		base = c.endpoint
	}
	if base == "" {
		return nil, fmt.Errorf("no api endpoint configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+productsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Locale != "" {
		httpReq.Header.Set("Accept-Language", req.Locale)
	}
	if req.APIAccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIAccessToken)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, reliability.Retryable(fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		statusErr := fmt.Errorf("monetization http status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		if reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return nil, reliability.Retryable(statusErr)
		}
		return nil, statusErr
	}

	var out productsResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out.InSkillProducts, nil
}
