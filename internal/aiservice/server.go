// Package aiservice implements the orchestration service behind /chat. It
// turns user messages into LLM tool-calling requests, relays the
// request_file_process tool through the MCP client, and maps the outcome to
// the elicitation payload the chat client understands. Without an OpenAI
// key it falls back to keyword matching.
package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"filechat/internal/flowlog"
	"filechat/internal/mcp"
	"filechat/internal/models"
)

// ChatCompleter is the slice of the OpenAI client the service uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ToolCaller invokes MCP tools. Satisfied by *mcp.Client.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, arguments map[string]any, traceID string) (*mcp.ToolOutcome, error)
}

// Server is the AI orchestration HTTP service.
type Server struct {
	llm    ChatCompleter
	model  string
	tools  ToolCaller
	log    *flowlog.Logger
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLLM enables the LLM path with the given client and model name.
func WithLLM(llm ChatCompleter, model string) Option {
	return func(s *Server) {
		s.llm = llm
		s.model = model
	}
}

// WithLogger sets the flow logger.
func WithLogger(log *flowlog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a Server relaying tool calls through tools. Without
// WithLLM the service answers from keyword-based fallbacks.
func NewServer(tools ToolCaller, opts ...Option) *Server {
	s := &Server{
		tools: tools,
		log:   flowlog.New(flowlog.ComponentAIService),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc(models.PathChat, s.handleChat).Methods(http.MethodPost)
	r.HandleFunc(models.PathElicitationComplete, s.handleElicitationComplete).Methods(http.MethodPost)
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
	s.log.Event(flowlog.Outbound, "startup", fmt.Sprintf("ai-service starting on port %d", port), "")
	if s.llm == nil {
		s.log.Event(flowlog.Outbound, "startup", "OPENAI_API_KEY not set, using fallback logic", "")
	}
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.router)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	traceID := r.Header.Get(models.TraceHeader)
	if traceID == "" {
		traceID = flowlog.NewTraceID()
	}

	var chatReq models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s.log.EventAs(flowlog.ComponentUI, flowlog.Outbound, "user_message",
		"User message: "+truncate(chatReq.Message, 100), traceID,
		flowlog.F("file_attached", chatReq.HasAttachedFile),
	)

	var resp models.ChatResponse
	if s.llm == nil {
		resp = s.fallbackResponse(chatReq, traceID)
	} else {
		resp = s.llmResponse(r.Context(), chatReq, traceID)
	}

	writeJSON(w, http.StatusOK, resp)
}

// fallbackResponse answers without an LLM: file-related keywords get upload
// instructions, everything else gets a hint.
func (s *Server) fallbackResponse(req models.ChatRequest, traceID string) models.ChatResponse {
	s.log.Event(flowlog.Outbound, "fallback_response", "Using fallback logic (no LLM configured)", traceID)

	lower := strings.ToLower(req.Message)
	if strings.Contains(lower, "file") || strings.Contains(lower, "process") || strings.Contains(lower, "upload") {
		return models.ChatResponse{
			Response: "Please attach a file using the '+' button, then send your message to process it.",
		}
	}
	return models.ChatResponse{
		Response: "Hello! Say 'process file' or 'upload file' to start a file upload. Note: OpenAI API key not configured.",
	}
}

// llmResponse runs the tool-calling exchange with the LLM. All failures
// come back as chat text, never as an HTTP error.
func (s *Server) llmResponse(ctx context.Context, req models.ChatRequest, traceID string) models.ChatResponse {
	start := time.Now()

	s.log.EventAs(flowlog.ComponentLLM, flowlog.Outbound, "llm_request",
		"Sending message to LLM (model: "+s.model+")", traceID)

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.HasAttachedFile)},
			{Role: openai.ChatMessageRoleUser, Content: req.Message},
		},
		Tools: []openai.Tool{fileProcessTool()},
	})
	if err != nil {
		s.log.Event(flowlog.Outbound, "chat_error", "Error processing message: "+err.Error(), traceID)
		return models.ChatResponse{Response: "Error processing your message: " + err.Error()}
	}
	if len(completion.Choices) == 0 {
		s.log.Event(flowlog.Outbound, "chat_error", "LLM returned no choices", traceID)
		return models.ChatResponse{Response: "Error processing your message: empty completion"}
	}

	message := completion.Choices[0].Message
	responseText := message.Content

	s.log.EventAs(flowlog.ComponentLLM, flowlog.Inbound, "llm_response",
		"LLM response: "+truncate(responseText, 100), traceID,
		flowlog.F("duration_ms", time.Since(start).Milliseconds()),
		flowlog.F("tool_calls_count", len(message.ToolCalls)),
	)

	var elicitation *models.Elicitation
	for _, call := range message.ToolCalls {
		if call.Function.Name != models.ToolRequestFileProcess {
			continue
		}
		responseText, elicitation = s.runFileProcessTool(ctx, call.Function.Arguments, req.HasAttachedFile, responseText, traceID)
	}

	s.log.Event(flowlog.Outbound, "chat_response",
		fmt.Sprintf("Sending response to UI (elicitation=%t)", elicitation != nil), traceID,
		flowlog.F("duration_ms", time.Since(start).Milliseconds()),
	)

	return models.ChatResponse{Response: responseText, Elicitation: elicitation}
}

// runFileProcessTool relays one request_file_process call through MCP. The
// requested mode is overridden by the attachment status: an attached file
// always streams, no attachment always opens the picker.
func (s *Server) runFileProcessTool(ctx context.Context, rawArgs string, hasAttached bool, responseText, traceID string) (string, *models.Elicitation) {
	toolMessage := gjson.Get(rawArgs, "message").String()
	if toolMessage == "" {
		toolMessage = "Please select a file to upload for processing"
	}
	mode := gjson.Get(rawArgs, "mode").String()
	if hasAttached {
		mode = models.ModeStream
	} else if mode != models.ModeUI {
		mode = models.ModeUI
	}

	s.log.EventAs(flowlog.ComponentTool, flowlog.Outbound, "tool_execute",
		fmt.Sprintf("Executing tool: %s (mode=%s)", models.ToolRequestFileProcess, mode), traceID,
		flowlog.F("tool_name", models.ToolRequestFileProcess),
	)

	outcome, err := s.tools.CallTool(ctx, models.ToolRequestFileProcess,
		map[string]any{"message": toolMessage, "mode": mode}, traceID)
	if err != nil {
		s.log.EventAs(flowlog.ComponentTool, flowlog.Inbound, "tool_error",
			"Error calling MCP tool: "+err.Error(), traceID,
			flowlog.F("tool_name", models.ToolRequestFileProcess),
		)
		return "I tried to initiate a file upload, but encountered an error: " + err.Error(), nil
	}

	switch {
	case outcome.Elicitation != nil:
		s.log.EventAs(flowlog.ComponentTool, flowlog.Inbound, "elicitation_url_received",
			"Received URL-mode elicitation from MCP server", traceID,
			flowlog.F("tool_name", models.ToolRequestFileProcess),
			flowlog.F("url", outcome.Elicitation.URL),
		)
		e := *outcome.Elicitation
		if e.Message == "" {
			e.Message = toolMessage
		}
		if responseText == "" {
			responseText = "Please select a file to upload."
		}
		return responseText, &e

	case outcome.Stream != nil:
		s.log.EventAs(flowlog.ComponentTool, flowlog.Inbound, "stream_url_received",
			"Received stream upload URL from MCP server", traceID,
			flowlog.F("tool_name", models.ToolRequestFileProcess),
			flowlog.F("url", outcome.Stream.URL),
		)
		if responseText == "" {
			if hasAttached {
				responseText = "Processing your attached file..."
			} else {
				responseText = toolMessage
			}
		}
		return responseText, &models.Elicitation{
			Type:    models.ElicitationTypeStream,
			Mode:    models.ModeStream,
			Message: outcome.Stream.Message,
			URL:     outcome.Stream.URL,
		}

	default:
		s.log.EventAs(flowlog.ComponentTool, flowlog.Inbound, "tool_error",
			"MCP tool error: "+outcome.ErrMessage, traceID,
			flowlog.F("tool_name", models.ToolRequestFileProcess),
			flowlog.F("status_code", outcome.ErrCode),
		)
		return "Error calling tool: " + outcome.ErrMessage, nil
	}
}

func (s *Server) handleElicitationComplete(w http.ResponseWriter, r *http.Request) {
	traceID := r.Header.Get(models.TraceHeader)
	if traceID == "" {
		traceID = "unknown"
	}

	var notice models.CompletionNotice
	if err := json.NewDecoder(r.Body).Decode(&notice); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	fileID := notice.FileID
	if fileID == "" {
		fileID = "unknown"
	}

	s.log.Event(flowlog.Inbound, "elicitation_complete", "Elicitation completed: file uploaded", traceID,
		flowlog.F("file_id", fileID),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "File upload completed",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// systemPrompt tells the LLM when to call the tool and which mode to pick
// given the attachment status.
func systemPrompt(hasAttached bool) string {
	status := "NO - use mode='ui'"
	if hasAttached {
		status = "YES - use mode='stream'"
	}
	return fmt.Sprintf(`You are a helpful assistant that can help users upload and process files.

IMPORTANT RULES:
1. When the user wants to upload or process a file, use the request_file_process tool. The tool will return an upload URL.

2. The tool accepts a mode parameter:
   - "stream" mode: Use this when a file is ALREADY ATTACHED in the UI. The frontend will automatically upload it.
   - "ui" mode: Use this when NO FILE is attached. The frontend will automatically open a file picker.

3. CURRENT SESSION STATUS:
   - File attached: %s

4. If a file is attached (has_attached_file=True), ALWAYS use mode="stream" - do NOT ask the user to attach a file.

5. If no file is attached (has_attached_file=False), use mode="ui" - the file picker will open automatically, no need to ask the user to click anything.

6. The frontend will handle streaming the file directly to the upload URL provided by the tool - you don't need to handle the file data.

7. When a file is attached, be direct and process it immediately. When no file is attached, use mode="ui" and the file picker will open automatically.`, status)
}

// fileProcessTool is the OpenAI tool definition for request_file_process.
func fileProcessTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        models.ToolRequestFileProcess,
			Description: "Initiates a file processing request. Use this when the user wants to upload, process, or work with a file.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"message": {
						"type": "string",
						"description": "A friendly message to display to the user asking them to select a file"
					},
					"mode": {
						"type": "string",
						"enum": ["ui", "stream"],
						"description": "Upload mode - \"ui\" for browser UI file picker (elicitation flow), \"stream\" for direct streaming to API"
					}
				}
			}`),
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
