package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"filechat/internal/api"
	"filechat/internal/flowlog"
	"filechat/internal/models"
	"filechat/internal/orchestrator"
)

func newTestModel(mock *api.MockClient) Model {
	orch := orchestrator.New(mock, orchestrator.WithLogger(flowlog.Nop()))
	m := NewChatModel(orch, "http://localhost:8000")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel(orchestrator.New(&api.MockClient{}), "http://localhost:8000")

	if m.loading {
		t.Error("model should not start in loading state")
	}
	if m.ready {
		t.Error("model should not be ready before the first size message")
	}
	if m.textarea.Placeholder != "Type your message here..." {
		t.Errorf("unexpected placeholder %q", m.textarea.Placeholder)
	}
}

func TestWindowSizeMakesReady(t *testing.T) {
	m := newTestModel(&api.MockClient{})

	if !m.ready {
		t.Error("model should be ready after a size message")
	}
	if m.viewport.Width != 96 {
		t.Errorf("viewport width = %d, want 96", m.viewport.Width)
	}
}

func TestEnterStartsLoading(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.textarea.SetValue("hello")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if !m.loading {
		t.Error("model should be loading after sending")
	}
	if cmd == nil {
		t.Error("expected a send command")
	}
	if m.textarea.Value() != "" {
		t.Error("textarea should be reset after sending")
	}
}

func TestEscDuringLoadingKeepsInputDisabled(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.textarea.SetValue("first")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if !m.loading {
		t.Fatal("esc must not re-enable input while an operation is in flight")
	}

	// Anything typed before the operation reports back must neither be
	// sent nor silently dropped.
	m.textarea.SetValue("second")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if !m.loading {
		t.Error("enter while busy should not change the loading state")
	}
	if m.textarea.Value() != "second" {
		t.Errorf("pending input should be kept, got %q", m.textarea.Value())
	}
}

func TestEscWhenIdleQuits(t *testing.T) {
	m := newTestModel(&api.MockClient{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("expected tea.Quit, got %T", msg)
	}
}

func TestEnterWithEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.textarea.SetValue("   ")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.loading {
		t.Error("empty input should not start loading")
	}
}

func TestExitCommands(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "/quit"} {
		t.Run(input, func(t *testing.T) {
			m := newTestModel(&api.MockClient{})
			m.textarea.SetValue(input)

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if msg := cmd(); msg != tea.Quit() {
				t.Errorf("expected tea.Quit, got %T", msg)
			}
		})
	}
}

func TestChatDoneWithDirectiveOpensPicker(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.loading = true

	directive := orchestrator.PickAndUpload{
		URL:     "http://localhost:8001/upload",
		Message: "Upload a file to continue",
		Trace:   "t1",
	}
	updated, _ := m.Update(chatDoneMsg{directive: directive})
	m = updated.(Model)

	if m.loading {
		t.Error("loading should clear when the exchange completes")
	}
	if !m.picking {
		t.Fatal("picker should open for a non-nil directive")
	}
	if m.pickerGoal != pickerDirective {
		t.Error("picker should be in directive mode")
	}
	if m.picker.prompt != "Upload a file to continue" {
		t.Errorf("picker prompt = %q", m.picker.prompt)
	}
}

func TestChatDoneWithoutDirective(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.loading = true

	updated, _ := m.Update(chatDoneMsg{})
	m = updated.(Model)

	if m.loading || m.picking {
		t.Error("plain exchange should return to idle")
	}
}

func TestPickerCancelReturnsToChat(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.picking = true
	m.pickerGoal = pickerDirective
	m.pendingUpload = orchestrator.PickAndUpload{URL: "http://x", Trace: "t1"}
	m.picker = NewFilePickerModel(t.TempDir(), "pick")
	m.picker.ready = true

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if m.picking {
		t.Error("picker should close on cancel")
	}
	if m.pendingUpload != nil {
		t.Error("pending directive should be dropped on cancel")
	}
	if m.loading {
		t.Error("cancel should not start an upload")
	}
}

func TestUploadDoneReturnsToIdle(t *testing.T) {
	m := newTestModel(&api.MockClient{})
	m.loading = true
	m.pendingUpload = orchestrator.PickAndUpload{URL: "http://x", Trace: "t1"}

	updated, _ := m.Update(uploadDoneMsg{})
	m = updated.(Model)

	if m.loading {
		t.Error("loading should clear after upload")
	}
	if m.pendingUpload != nil {
		t.Error("pending directive should clear after upload")
	}
}

func TestCtrlROffersDetach(t *testing.T) {
	mock := &api.MockClient{}
	orch := orchestrator.New(mock, orchestrator.WithLogger(flowlog.Nop()))
	orch.AttachFile("/tmp/report.pdf")
	m := NewChatModel(orch, "http://localhost:8000")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)

	if orch.Attached() != nil {
		t.Error("ctrl+r should clear the attachment")
	}
	if m.statusNote == "" {
		t.Error("detach should leave a status note")
	}
}

func TestLastAssistantText(t *testing.T) {
	mock := &api.MockClient{
		ChatResponse: &models.ChatResponse{Response: "the answer"},
	}
	m := newTestModel(mock)
	m.orch.SendMessage(t.Context(), "question")

	if got := m.lastAssistantText(); got != "the answer" {
		t.Errorf("lastAssistantText() = %q", got)
	}
}

func TestViewShowsAttachmentIndicator(t *testing.T) {
	mock := &api.MockClient{}
	orch := orchestrator.New(mock, orchestrator.WithLogger(flowlog.Nop()))
	orch.AttachFile("/tmp/report.pdf")
	m := NewChatModel(orch, "http://localhost:8000")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)

	if !strings.Contains(m.View(), "report.pdf") {
		t.Error("view should show the attached file name")
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("nil error should render empty")
	}
	out := FormatError(errors.New("boom"))
	if !strings.Contains(out, "boom") {
		t.Errorf("formatted error missing message: %q", out)
	}
}
