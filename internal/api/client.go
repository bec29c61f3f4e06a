// Package api implements the HTTP client for the filechat backend triad:
// chat and completion notices go to the AI service, file uploads go to
// whatever URL the server supplies.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apierrors "filechat/internal/errors"
	"filechat/internal/flowlog"
	"filechat/internal/models"
)

// ServiceClient defines the operations the orchestrator needs from the
// backend. Satisfied by Client and by MockClient in tests.
type ServiceClient interface {
	Health(ctx context.Context) error
	SendChat(ctx context.Context, req models.ChatRequest, traceID string) (*models.ChatResponse, error)
	Upload(ctx context.Context, uploadURL, filename string, content io.Reader, traceID string) (*models.UploadResult, error)
	CompleteElicitation(ctx context.Context, fileID, traceID string) error
}

// Client talks to the AI service and the file API over plain HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *flowlog.Logger
}

// Ensure Client implements ServiceClient
var _ ServiceClient = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the flow logger. Defaults to a UI-component logger on
// stderr.
func WithLogger(log *flowlog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the AI service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        flowlog.New(flowlog.ComponentUI),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured AI service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks the AI service's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+models.PathHealth, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apierrors.NewAPIError(resp.StatusCode, models.PathHealth, "service unhealthy")
	}

	var health models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return apierrors.NewParseError(err.Error(), models.PathHealth)
	}
	if health.Status != "ok" {
		return apierrors.NewAPIError(resp.StatusCode, models.PathHealth, "unexpected status: "+health.Status)
	}

	return nil
}

// SendChat POSTs a chat request with the given trace id and returns the
// assistant's reply, including any elicitation directive.
func (c *Client) SendChat(ctx context.Context, chatReq models.ChatRequest, traceID string) (*models.ChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+models.PathChat, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(models.TraceHeader, traceID)

	c.log.Event(flowlog.Outbound, "chat_request", "Sending chat message", traceID,
		flowlog.F("file_attached", chatReq.HasAttachedFile),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.NewAPIError(resp.StatusCode, models.PathChat, readErrorBody(resp.Body))
	}

	var chatResp models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, apierrors.NewParseError(err.Error(), models.PathChat)
	}

	c.log.Event(flowlog.Inbound, "chat_response", "Received chat response", traceID,
		flowlog.F("elicitation", chatResp.Elicitation != nil),
		flowlog.F("duration_ms", time.Since(start).Milliseconds()),
	)

	return &chatResp, nil
}

// CompleteElicitation notifies the AI service that a ui-mode upload
// finished. Stream-mode uploads never send this notice.
func (c *Client) CompleteElicitation(ctx context.Context, fileID, traceID string) error {
	notice := models.CompletionNotice{Status: "success", FileID: fileID}
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	endpoint := c.baseURL + models.PathElicitationComplete
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(models.TraceHeader, traceID)

	c.log.Event(flowlog.Outbound, "elicitation_complete", "Notifying upload completion", traceID,
		flowlog.F("file_id", fileID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("completion notice failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apierrors.NewAPIError(resp.StatusCode, models.PathElicitationComplete, readErrorBody(resp.Body))
	}

	return nil
}

// readErrorBody returns a short snippet of an error response body for
// inclusion in error messages.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "request failed"
	}
	return strings.TrimSpace(string(data))
}
