package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client executes GraphQL calls against the backend. Transport problems
// surface as Go errors; GraphQL-level errors ride inside the Response.
type Client interface {
	Mutate(ctx context.Context, req Request) (*Response, error)
	Query(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc resolves the current client at the moment a sync pass or an
// enqueue-triggered sync starts. A nil return means no client is
// configured yet and the pass must abort without touching the queue.
type ClientFunc func() Client

// HTTPClient posts requests to a GraphQL endpoint over HTTP
type HTTPClient struct {
	endpoint string
	token    string
	hc       *http.Client
}

// NewHTTPClient creates a client for the given endpoint. token is optional
// and sent as a bearer credential when set.
func NewHTTPClient(endpoint, token string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		token:    token,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Mutate executes a mutation document
func (c *HTTPClient) Mutate(ctx context.Context, req Request) (*Response, error) {
	return c.post(ctx, req)
}

// Query executes a query document. Replayed queries always go to the
// network; the agent keeps no response cache.
func (c *HTTPClient) Query(ctx context.Context, req Request) (*Response, error) {
	return c.post(ctx, req)
}

func (c *HTTPClient) post(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
