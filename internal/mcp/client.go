package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	apierrors "filechat/internal/errors"
	"filechat/internal/flowlog"
	"filechat/internal/models"
)

// ToolOutcome is the decoded result of a tools/call round trip. Exactly one
// of the first three fields is populated.
type ToolOutcome struct {
	// Elicitation is set for a URLElicitationRequiredError with url mode.
	Elicitation *models.Elicitation
	// Stream is set for a successful call whose text content carries a
	// stream_upload payload.
	Stream *models.StreamUploadPayload
	// ErrMessage carries any other tool-level error, with its code.
	ErrMessage string
	ErrCode    int
}

// Client is the MCP client side of the HTTP transport. Each tool call
// re-initializes the connection, matching the stateless server.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *flowlog.Logger

	mu        sync.Mutex
	requestID int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientHTTPClient sets the underlying HTTP client.
func WithClientHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientLogger sets the flow logger.
func WithClientLogger(log *flowlog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client for the given MCP endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        flowlog.New(flowlog.ComponentMCPClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextID returns a fresh JSON-RPC request id.
func (c *Client) nextID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestID++
	return c.requestID
}

// CallTool initializes the MCP connection and invokes the named tool.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any, traceID string) (*ToolOutcome, error) {
	initID := c.nextID()
	c.log.Event(flowlog.Outbound, "mcp_initialize", "Initializing MCP connection", traceID,
		flowlog.F("request_id", initID),
	)

	initParams := map[string]any{
		"protocolVersion": models.MCPProtocolVersion,
		"capabilities": map[string]any{
			"elicitation": map[string]any{
				"url":  map[string]any{},
				"form": map[string]any{},
			},
		},
		"clientInfo": map[string]any{
			"name":    "ai-service",
			"version": "1.0.0",
		},
	}
	if _, err := c.post(ctx, initID, "initialize", initParams, traceID); err != nil {
		return nil, err
	}

	toolID := c.nextID()
	start := time.Now()
	c.log.Event(flowlog.Outbound, "tool_call", "Calling MCP tool: "+name, traceID,
		flowlog.F("request_id", toolID),
		flowlog.F("tool_name", name),
	)

	body, err := c.post(ctx, toolID, "tools/call", map[string]any{
		"name":      name,
		"arguments": arguments,
	}, traceID)
	if err != nil {
		return nil, err
	}

	durationMS := time.Since(start).Milliseconds()
	return c.decodeToolResponse(body, name, traceID, toolID, durationMS)
}

// post sends one JSON-RPC request and returns the raw response body.
func (c *Client) post(ctx context.Context, id int, method string, params any, traceID string) ([]byte, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	payload, err := json.Marshal(models.RPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(models.TraceHeader, traceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.NewAPIError(resp.StatusCode, c.endpoint, "unexpected status")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// decodeToolResponse classifies a tools/call response body.
func (c *Client) decodeToolResponse(body []byte, toolName, traceID string, requestID int, durationMS int64) (*ToolOutcome, error) {
	if errObj := gjson.GetBytes(body, "error"); errObj.Exists() {
		code := int(errObj.Get("code").Int())
		message := errObj.Get("message").String()

		if code == models.CodeElicitationRequired && errObj.Get("data.mode").String() == models.ModeURL {
			c.log.Event(flowlog.Inbound, "elicitation_required",
				"Received URLElicitationRequiredError from MCP server", traceID,
				flowlog.F("request_id", requestID),
				flowlog.F("tool_name", toolName),
				flowlog.F("duration_ms", durationMS),
			)
			return &ToolOutcome{
				Elicitation: &models.Elicitation{
					Type:    models.ElicitationTypeURL,
					Mode:    models.ModeURL,
					Message: errObj.Get("data.message").String(),
					URL:     errObj.Get("data.url").String(),
				},
			}, nil
		}

		c.log.Event(flowlog.Inbound, "tool_error", "MCP tool returned error: "+message, traceID,
			flowlog.F("request_id", requestID),
			flowlog.F("tool_name", toolName),
			flowlog.F("duration_ms", durationMS),
		)
		return &ToolOutcome{ErrMessage: message, ErrCode: code}, nil
	}

	c.log.Event(flowlog.Inbound, "tool_response", "Received tool response from MCP server", traceID,
		flowlog.F("request_id", requestID),
		flowlog.F("tool_name", toolName),
		flowlog.F("duration_ms", durationMS),
	)

	text := gjson.GetBytes(body, "result.content.0.text").String()
	if text == "" {
		return nil, apierrors.NewParseError("tool result has no text content", "result.content")
	}

	var payload models.StreamUploadPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, apierrors.NewParseError("failed to parse tool content: "+err.Error(), "result.content.0.text")
	}
	if payload.Type != models.ElicitationTypeStream {
		return nil, apierrors.NewParseError("unexpected tool content type: "+payload.Type, "result.content.0.text")
	}

	return &ToolOutcome{Stream: &payload}, nil
}
