package models

import "encoding/json"

// ChatRequest is the JSON body sent to the AI service's /chat endpoint.
type ChatRequest struct {
	Message         string `json:"message"`
	HasAttachedFile bool   `json:"has_attached_file"`
}

// Elicitation is the optional directive carried on a chat response.
// Two shapes exist on the wire: {type:"elicitation", mode:"url"} for the
// interactive pick-then-POST flow, and {type:"stream_upload", mode:"stream"}
// for direct streaming without a completion callback.
type Elicitation struct {
	Type    string `json:"type"`
	Mode    string `json:"mode"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Elicitation type and mode values.
const (
	ElicitationTypeURL    = "elicitation"
	ElicitationTypeStream = "stream_upload"

	ModeUI     = "ui"
	ModeURL    = "url"
	ModeStream = "stream"
)

// ChatResponse is the JSON body returned by the AI service's /chat endpoint.
type ChatResponse struct {
	Response    string       `json:"response"`
	Elicitation *Elicitation `json:"elicitation,omitempty"`
}

// UploadResult is the JSON body returned by the file API after a successful
// multipart upload.
type UploadResult struct {
	Status string `json:"status"`
	FileID string `json:"file_id"`
}

// CompletionNotice is POSTed to the AI service's /elicitation/complete
// endpoint after a ui-mode upload succeeds.
type CompletionNotice struct {
	Status string `json:"status"`
	FileID string `json:"file_id"`
}

// HealthResponse is the body of every service's GET /health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// StreamUploadPayload is the JSON document the MCP server embeds as text
// content in a stream-mode tools/call result.
type StreamUploadPayload struct {
	Type     string          `json:"type"`
	Mode     string          `json:"mode"`
	Message  string          `json:"message"`
	URL      string          `json:"url"`
	Metadata *StreamMetadata `json:"metadata,omitempty"`
}

// StreamMetadata describes how the upload endpoint expects to be called.
type StreamMetadata struct {
	Description string `json:"description"`
	Method      string `json:"method"`
	ContentType string `json:"contentType"`
}

// EncodeStreamPayload marshals a stream upload payload for embedding in MCP
// text content.
func EncodeStreamPayload(p StreamUploadPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
