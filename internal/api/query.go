package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/docchat/cli/internal/session"
)

// QueryClient wraps the query service, which answers questions about the
// uploaded document.
type QueryClient struct {
	baseURL   string
	transport *transport
}

// NewQueryClient creates a new query service client.
func NewQueryClient(baseURL string, sess *session.Session) *QueryClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	return &QueryClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: newTransport(sess),
	}
}

// OnAuthExpired registers a callback invoked when the service rejects the
// stored credential.
func (c *QueryClient) OnAuthExpired(fn func()) {
	c.transport.onExpired = fn
}

// Ask submits a question and returns the service's answer.
func (c *QueryClient) Ask(ctx context.Context, query string) (*AskResponse, error) {
	payload := struct {
		Query string `json:"query"`
	}{Query: query}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.do(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var answer AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &answer, nil
}
