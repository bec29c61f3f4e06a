package orchestrator

import (
	apierrors "filechat/internal/errors"
	"filechat/internal/models"
)

// Directive is what a chat response can ask the client to do next. The two
// variants differ in one load-bearing way: PickAndUpload sends a completion
// notice to the AI service after the upload, StreamUpload never does. Keeping
// them as separate types makes that branch a compile-time switch instead of
// a string comparison.
type Directive interface {
	// UploadURL is the server-supplied target for the multipart POST.
	UploadURL() string
	// Prompt is the human-readable message to show while picking a file.
	Prompt() string
	// TraceID threads the originating operation's trace id into the upload.
	TraceID() string

	isDirective()
}

// PickAndUpload is the interactive url-mode elicitation: open a picker,
// upload the chosen file, then notify the AI service of completion.
type PickAndUpload struct {
	URL     string
	Message string
	Trace   string
}

func (d PickAndUpload) UploadURL() string { return d.URL }
func (d PickAndUpload) Prompt() string    { return d.Message }
func (d PickAndUpload) TraceID() string   { return d.Trace }
func (d PickAndUpload) isDirective()      {}

// StreamUpload is the stream-mode directive: upload directly to the given
// URL, without a trace header and without a completion callback.
type StreamUpload struct {
	URL     string
	Message string
	Trace   string
}

func (d StreamUpload) UploadURL() string { return d.URL }
func (d StreamUpload) Prompt() string    { return d.Message }
func (d StreamUpload) TraceID() string   { return d.Trace }
func (d StreamUpload) isDirective()      {}

// decodeDirective converts the wire elicitation shape into the typed
// variant. Unknown modes are a parse error, surfaced to the conversation
// like any other failure.
func decodeDirective(e *models.Elicitation, traceID string) (Directive, error) {
	switch e.Mode {
	case models.ModeURL, models.ModeUI:
		return PickAndUpload{URL: e.URL, Message: e.Message, Trace: traceID}, nil
	case models.ModeStream:
		return StreamUpload{URL: e.URL, Message: e.Message, Trace: traceID}, nil
	default:
		return nil, apierrors.NewParseError("unknown elicitation mode: "+e.Mode, "elicitation.mode")
	}
}
