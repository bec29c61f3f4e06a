// Package orchestrator owns the conversation state and drives the
// upload/elicitation flow: it sends chat messages, reacts to server
// directives by requesting a file pick or auto-uploading an attached file,
// and posts completion notices where the protocol requires them.
//
// Every user-initiated operation gets its own trace id. At most one
// operation is in flight at a time; the processing flag gates new work and
// is released on every exit path, so the state machine always returns to
// idle.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filechat/internal/api"
	"filechat/internal/flowlog"
	"filechat/internal/models"
)

// Attachment is the single optional client-side file slot. Attaching again
// replaces it; it is cleared after successful use or explicit removal.
type Attachment struct {
	Name string
	Path string
}

// Orchestrator is the client-side state machine behind the chat UI.
type Orchestrator struct {
	client api.ServiceClient
	log    *flowlog.Logger

	mu         sync.Mutex
	messages   []models.Message
	attached   *Attachment
	processing bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the flow logger.
func WithLogger(log *flowlog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// New creates an Orchestrator talking through the given client.
func New(client api.ServiceClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		log:    flowlog.New(flowlog.ComponentUI),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Messages returns a copy of the conversation transcript.
func (o *Orchestrator) Messages() []models.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Processing reports whether an operation is currently in flight.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}

// Attached returns the current attachment, or nil.
func (o *Orchestrator) Attached() *Attachment {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attached == nil {
		return nil
	}
	a := *o.attached
	return &a
}

// AttachFile stores a file in the attachment slot without contacting any
// server. Attaching while a file is already attached replaces it; each
// attach action appends one system message.
func (o *Orchestrator) AttachFile(path string) {
	name := filepath.Base(path)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = &Attachment{Name: name, Path: path}
	o.messages = append(o.messages, models.Message{
		Kind: models.KindSystem,
		Text: "Attached file: " + name,
	})
}

// RemoveAttachedFile clears the attachment slot. No server interaction.
func (o *Orchestrator) RemoveAttachedFile() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = nil
}

// SendMessage sends one chat message and handles the response. The returned
// Directive is non-nil when the UI must open a file picker; the caller feeds
// the picked file back through HandleFileSelect.
//
// Empty input and calls made while an operation is in flight are silent
// no-ops.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) Directive {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return nil
	}
	o.processing = true

	hasAttached := o.attached != nil
	userText := text
	if hasAttached {
		userText = fmt.Sprintf("%s [attached: %s]", text, o.attached.Name)
	}
	o.messages = append(o.messages, models.Message{Kind: models.KindUser, Text: userText})
	o.mu.Unlock()

	// The busy flag is released on every exit path, including panics in the
	// transport, so the UI can never get stuck disabled.
	defer o.setProcessing(false)

	traceID := flowlog.NewTraceID()
	o.log.Event(flowlog.Outbound, "user_message", "User message: "+truncate(text, 100), traceID,
		flowlog.F("file_attached", hasAttached),
	)

	resp, err := o.client.SendChat(ctx, models.ChatRequest{
		Message:         text,
		HasAttachedFile: hasAttached,
	}, traceID)
	if err != nil {
		o.appendError(traceID, "chat_error", err)
		return nil
	}

	o.append(models.Message{Kind: models.KindAssistant, Text: resp.Response})

	if resp.Elicitation == nil {
		return nil
	}

	directive, err := decodeDirective(resp.Elicitation, traceID)
	if err != nil {
		o.appendError(traceID, "elicitation_error", err)
		return nil
	}

	switch d := directive.(type) {
	case PickAndUpload:
		o.log.Event(flowlog.Inbound, "elicitation_received", "Upload requested, opening file picker", traceID,
			flowlog.F("upload_url", d.URL),
		)
		return d

	case StreamUpload:
		attachment := o.takeAttachment()
		if attachment == nil {
			o.log.Event(flowlog.Inbound, "stream_url_received", "Stream upload requested, opening file picker", traceID,
				flowlog.F("upload_url", d.URL),
			)
			return d
		}
		// A file is already attached: stream it right away. The slot was
		// consumed above; it comes back only on failure so the user can
		// retry.
		if err := o.streamUpload(ctx, d, attachment); err != nil {
			o.restoreAttachment(attachment)
		}
		return nil
	}

	return nil
}

// HandleFileSelect uploads a picked file per the stashed directive. For
// PickAndUpload the upload carries the trace header and is followed by a
// completion notice to the AI service; StreamUpload sends neither — the
// asymmetry is part of the protocol.
func (o *Orchestrator) HandleFileSelect(ctx context.Context, path string, directive Directive) {
	if path == "" || directive == nil {
		return
	}

	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return
	}
	o.processing = true
	o.mu.Unlock()

	defer o.setProcessing(false)

	name := filepath.Base(path)
	traceID := directive.TraceID()

	o.append(models.Message{Kind: models.KindUser, Text: "Selected file: " + name})
	o.log.Event(flowlog.Outbound, "file_selected", "Uploading selected file: "+name, traceID,
		flowlog.F("upload_url", directive.UploadURL()),
	)

	switch d := directive.(type) {
	case PickAndUpload:
		result, err := o.uploadPath(ctx, d.URL, path, traceID)
		if err != nil {
			o.appendError(traceID, "upload_error", err)
			return
		}
		o.append(models.Message{
			Kind: models.KindAssistant,
			Text: fmt.Sprintf("File %q uploaded successfully. File ID: %s", name, result.FileID),
		})
		if err := o.client.CompleteElicitation(ctx, result.FileID, traceID); err != nil {
			o.appendError(traceID, "elicitation_complete_error", err)
		}

	case StreamUpload:
		// Stream uploads omit the trace header and skip the completion
		// notice.
		result, err := o.uploadPath(ctx, d.URL, path, "")
		if err != nil {
			o.appendError(traceID, "upload_error", err)
			return
		}
		o.append(models.Message{
			Kind: models.KindAssistant,
			Text: fmt.Sprintf("File %q uploaded successfully. File ID: %s", name, result.FileID),
		})
	}
}

// streamUpload sends an already-attached file to a stream directive's URL.
// Caller holds no locks. Returns the upload error so the caller can restore
// the attachment slot.
func (o *Orchestrator) streamUpload(ctx context.Context, d StreamUpload, attachment *Attachment) error {
	o.log.Event(flowlog.Outbound, "stream_upload", "Streaming attached file: "+attachment.Name, d.Trace,
		flowlog.F("upload_url", d.URL),
	)

	result, err := o.uploadPath(ctx, d.URL, attachment.Path, "")
	if err != nil {
		o.appendError(d.Trace, "upload_error", err)
		return err
	}

	o.append(models.Message{
		Kind: models.KindAssistant,
		Text: fmt.Sprintf("File %q uploaded successfully. File ID: %s", attachment.Name, result.FileID),
	})
	return nil
}

// uploadPath opens a file from disk and uploads it through the client.
func (o *Orchestrator) uploadPath(ctx context.Context, uploadURL, path, traceID string) (*models.UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return o.client.Upload(ctx, uploadURL, filepath.Base(path), file, traceID)
}

func (o *Orchestrator) append(msg models.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
}

func (o *Orchestrator) appendError(traceID, event string, err error) {
	o.log.Event(flowlog.Inbound, event, err.Error(), traceID)
	o.append(models.Message{Kind: models.KindError, Text: "Error: " + err.Error()})
}

func (o *Orchestrator) setProcessing(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.processing = v
}

// takeAttachment consumes the attachment slot.
func (o *Orchestrator) takeAttachment() *Attachment {
	o.mu.Lock()
	defer o.mu.Unlock()
	a := o.attached
	o.attached = nil
	return a
}

// restoreAttachment puts a consumed attachment back after a failed stream
// upload.
func (o *Orchestrator) restoreAttachment(a *Attachment) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = a
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
