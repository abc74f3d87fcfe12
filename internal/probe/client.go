package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canonica-labs/identlab/pkg/api"
	"github.com/canonica-labs/identlab/pkg/models"
)

// Client is the HTTP client for a running identlab gateway.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the gateway at endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the configured gateway endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Response is one raw gateway answer. Code is 0 when no HTTP response was
// received, and Body then holds the transport error.
type Response struct {
	Code     int
	Body     string
	Envelope *models.Envelope
}

// Get requests path with rawQuery appended verbatim, so percent-escapes in
// payloads reach the gateway exactly as written.
func (c *Client) Get(ctx context.Context, path, rawQuery string) Response {
	url := c.endpoint + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{Body: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Code: resp.StatusCode, Body: err.Error()}
	}

	out := Response{Code: resp.StatusCode, Body: string(body)}
	var env models.Envelope
	if json.Unmarshal(body, &env) == nil {
		out.Envelope = &env
	}
	return out
}

// Health calls /health. A 500 with a decodable body is returned as a
// HealthResponse with OK false, not as an error.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("no gateway endpoint configured")
	}

	resp := c.Get(ctx, api.EndpointHealth, "")
	if resp.Code == 0 {
		return nil, fmt.Errorf("gateway unavailable at %s: %s", c.endpoint, resp.Body)
	}

	var health models.HealthResponse
	if err := json.Unmarshal([]byte(resp.Body), &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response (HTTP %d): %w", resp.Code, err)
	}
	return &health, nil
}
