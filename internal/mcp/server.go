// Package mcp implements the MCP JSON-RPC HTTP transport: the server that
// exposes the file processing tool, and the client the AI service uses to
// call it.
package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"

	"filechat/internal/flowlog"
	"filechat/internal/models"
)

// elicitationData is the error.data payload of a URLElicitationRequiredError.
type elicitationData struct {
	Mode    string `json:"mode"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Server is the MCP HTTP service. It speaks JSON-RPC 2.0 over POST /mcp and
// hands out the file API's upload URL through the request_file_process tool.
type Server struct {
	uploadURL string
	log       *flowlog.Logger
	router    *mux.Router
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the flow logger.
func WithServerLogger(log *flowlog.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a Server that directs uploads to uploadURL.
func NewServer(uploadURL string, opts ...ServerOption) *Server {
	s := &Server{
		uploadURL: uploadURL,
		log:       flowlog.New(flowlog.ComponentMCPServer),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc(models.PathMCP, s.handleMCP).Methods(http.MethodPost)
	r.HandleFunc(models.PathHealth, s.handleHealth).Methods(http.MethodGet)
	s.router = r

	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the service on the given port.
func (s *Server) ListenAndServe(port int) error {
	s.log.Event(flowlog.Outbound, "startup", fmt.Sprintf("mcp-server starting on port %d", port), "",
		flowlog.F("upload_url", s.uploadURL),
	)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.router)
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	traceID := r.Header.Get(models.TraceHeader)
	if traceID == "" {
		traceID = "unknown"
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	method := gjson.GetBytes(body, "method").String()
	requestID := "unknown"
	if id := gjson.GetBytes(body, "id"); id.Exists() {
		requestID = id.String()
	}

	s.log.Event(flowlog.Inbound, "mcp_request", "Received MCP request: "+method, traceID,
		flowlog.F("request_id", requestID),
	)

	switch method {
	case "initialize":
		s.handleInitialize(w, body, requestID, traceID)
	case "tools/list":
		s.handleToolsList(w, requestID, traceID)
	case "tools/call":
		s.handleToolCall(w, body, requestID, traceID)
	case "elicitation/accept":
		s.log.Event(flowlog.Inbound, "elicitation_accept", "Elicitation accepted by client", traceID,
			flowlog.F("request_id", requestID),
		)
		writeRPC(w, models.RPCResponse{JSONRPC: "2.0", ID: requestID, Result: struct{}{}})
	case "elicitation/decline":
		s.log.Event(flowlog.Inbound, "elicitation_decline", "Elicitation declined by client", traceID,
			flowlog.F("request_id", requestID),
		)
		writeRPC(w, models.RPCResponse{JSONRPC: "2.0", ID: requestID, Result: struct{}{}})
	default:
		writeRPC(w, models.RPCResponse{
			JSONRPC: "2.0",
			ID:      requestID,
			Error: &models.RPCError{
				Code:    models.CodeMethodNotFound,
				Message: "Method not found: " + method,
			},
		})
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, body []byte, requestID, traceID string) {
	protocolVersion := gjson.GetBytes(body, "params.protocolVersion").String()
	if protocolVersion == "" {
		protocolVersion = "unknown"
	}
	s.log.Event(flowlog.Outbound, "mcp_initialize", "MCP client initialized with protocol "+protocolVersion, traceID,
		flowlog.F("request_id", requestID),
	)

	writeRPC(w, models.RPCResponse{
		JSONRPC: "2.0",
		ID:      requestID,
		Result: map[string]any{
			"protocolVersion": models.MCPProtocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "mcp-file-server",
				"version": "1.0.0",
			},
		},
	})
}

func (s *Server) handleToolsList(w http.ResponseWriter, requestID, traceID string) {
	s.log.Event(flowlog.Outbound, "tools_list", "Returning available tools list", traceID,
		flowlog.F("request_id", requestID),
	)

	writeRPC(w, models.RPCResponse{
		JSONRPC: "2.0",
		ID:      requestID,
		Result: map[string]any{
			"tools": []map[string]any{
				{
					"name":        models.ToolRequestFileProcess,
					"description": "Initiates a file processing request that requires user to upload a file",
					"inputSchema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"message": map[string]any{
								"type":        "string",
								"description": "Message to display to the user",
							},
							"mode": map[string]any{
								"type":        "string",
								"enum":        []string{"ui", "stream"},
								"description": "Upload mode: 'ui' for browser UI file picker, 'stream' for direct streaming to API",
							},
						},
						"required": []string{"message", "mode"},
					},
				},
			},
		},
	})
}

func (s *Server) handleToolCall(w http.ResponseWriter, body []byte, requestID, traceID string) {
	toolName := gjson.GetBytes(body, "params.name").String()

	s.log.Event(flowlog.Inbound, "tool_call", "Tool call received: "+toolName, traceID,
		flowlog.F("request_id", requestID),
		flowlog.F("tool_name", toolName),
	)

	if toolName != models.ToolRequestFileProcess {
		writeRPC(w, models.RPCResponse{
			JSONRPC: "2.0",
			ID:      requestID,
			Error: &models.RPCError{
				Code:    models.CodeMethodNotFound,
				Message: "Unknown tool: " + toolName,
			},
		})
		return
	}

	message := gjson.GetBytes(body, "params.arguments.message").String()
	if message == "" {
		message = "Please upload a file for processing"
	}
	mode := gjson.GetBytes(body, "params.arguments.mode").String()
	if mode == "" {
		mode = models.ModeUI
	}

	switch mode {
	case models.ModeUI:
		// The tool call cannot proceed until the user uploads a file, so
		// the answer is a URLElicitationRequiredError carrying the upload
		// URL in error.data.
		s.log.Event(flowlog.Outbound, "elicitation_url_required",
			"Returning URL-mode elicitation (URLElicitationRequiredError)", traceID,
			flowlog.F("request_id", requestID),
			flowlog.F("tool_name", toolName),
			flowlog.F("upload_url", s.uploadURL),
		)
		writeRPC(w, models.RPCResponse{
			JSONRPC: "2.0",
			ID:      requestID,
			Error: &models.RPCError{
				Code:    models.CodeElicitationRequired,
				Message: "URLElicitationRequiredError",
				Data: elicitationData{
					Mode:    models.ModeURL,
					Message: message,
					URL:     s.uploadURL,
				},
			},
		})

	case models.ModeStream:
		s.log.Event(flowlog.Outbound, "stream_upload_url", "Returning direct stream upload URL", traceID,
			flowlog.F("request_id", requestID),
			flowlog.F("tool_name", toolName),
			flowlog.F("upload_url", s.uploadURL),
		)
		text, err := models.EncodeStreamPayload(models.StreamUploadPayload{
			Type:    models.ElicitationTypeStream,
			Mode:    models.ModeStream,
			Message: message,
			URL:     s.uploadURL,
			Metadata: &models.StreamMetadata{
				Description: "Direct file upload endpoint",
				Method:      http.MethodPost,
				ContentType: "multipart/form-data",
			},
		})
		if err != nil {
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}
		writeRPC(w, models.RPCResponse{
			JSONRPC: "2.0",
			ID:      requestID,
			Result: models.ToolResult{
				Content: []models.ToolContent{{Type: "text", Text: text}},
				IsError: false,
			},
		})

	default:
		// An unrecognized mode falls through to the same answer as an
		// unknown tool.
		writeRPC(w, models.RPCResponse{
			JSONRPC: "2.0",
			ID:      requestID,
			Error: &models.RPCError{
				Code:    models.CodeMethodNotFound,
				Message: "Unknown tool: " + toolName,
			},
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok"})
}

func writeRPC(w http.ResponseWriter, resp models.RPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
