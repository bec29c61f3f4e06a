package flowlog

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewTraceID_Format(t *testing.T) {
	id := NewTraceID()

	if len(id) != 8 {
		t.Errorf("trace id length = %d, want 8", len(id))
	}

	valid := regexp.MustCompile(`^[0-9a-f]{8}$`)
	if !valid.MatchString(id) {
		t.Errorf("trace id %q contains unexpected characters", id)
	}
}

func TestNewTraceID_Distinct(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()

	if a == b {
		t.Errorf("consecutive trace ids are equal: %q", a)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips query string",
			input:    "https://host/path?token=secret",
			expected: "https://host/path",
		},
		{
			name:     "strips fragment",
			input:    "http://localhost:8001/upload#frag",
			expected: "http://localhost:8001/upload",
		},
		{
			name:     "keeps plain url",
			input:    "http://localhost:8001/upload",
			expected: "http://localhost:8001/upload",
		},
		{
			name:     "non-url passthrough",
			input:    "not a url",
			expected: "not a url",
		},
		{
			name:     "non-url truncated at question mark",
			input:    "not a url?with=query",
			expected: "not a url",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactURL(tt.input); got != tt.expected {
				t.Errorf("RedactURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormat_FullLine(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

	line := formatAt(ts, ComponentUI, Outbound, "user_message", "User message: hello", "abc12345",
		F("file_attached", false),
	)

	want := "[2025-03-14 09:26:53.589] [trace_id=abc12345] [UI] → [user_message] User message: hello | file_attached=false"
	if line != want {
		t.Errorf("line = %q, want %q", line, want)
	}
}

func TestFormat_NoTraceID(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	line := formatAt(ts, ComponentFileAPI, Inbound, "file_upload_received", "Received upload", "")

	if strings.Contains(line, "trace_id") {
		t.Errorf("line should omit trace_id segment: %q", line)
	}
	if !strings.HasPrefix(line, "[2025-03-14 09:26:53.000] [FILE_API] ← ") {
		t.Errorf("unexpected line prefix: %q", line)
	}
}

func TestFormat_RedactsURLFields(t *testing.T) {
	line := Format(ComponentTool, Inbound, "stream_url_received", "Got URL", "t1",
		F("upload_url", "http://localhost:8001/upload?sig=secret"),
	)

	if strings.Contains(line, "secret") {
		t.Errorf("url field not redacted: %q", line)
	}
	if !strings.Contains(line, "upload_url=http://localhost:8001/upload") {
		t.Errorf("redacted url missing: %q", line)
	}
}

func TestFormat_OmitsNilFields(t *testing.T) {
	line := Format(ComponentLLM, Outbound, "llm_request", "Sending", "t1",
		F("duration_ms", nil),
		F("tool_calls_count", 2),
	)

	if strings.Contains(line, "duration_ms") {
		t.Errorf("nil field should be omitted: %q", line)
	}
	if !strings.HasSuffix(line, "| tool_calls_count=2") {
		t.Errorf("non-nil field missing: %q", line)
	}
}

func TestFormat_NoFieldsNoSeparator(t *testing.T) {
	line := Format(ComponentMCPServer, Outbound, "tools_list", "Returning tools", "t1")

	if strings.Contains(line, "|") {
		t.Errorf("line without fields should have no separator: %q", line)
	}
}

func TestFormat_PreservesFieldOrder(t *testing.T) {
	line := Format(ComponentMCPClient, Outbound, "tool_call", "Calling tool", "t1",
		F("request_id", 2),
		F("tool_name", "request_file_process"),
		F("status_code", 200),
	)

	want := "| request_id=2 tool_name=request_file_process status_code=200"
	if !strings.HasSuffix(line, want) {
		t.Errorf("fields out of order: %q", line)
	}
}

func TestLogger_WritesBareLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(ComponentUI, &buf)

	log.Event(Outbound, "user_message", "hello", "abc12345")

	out := buf.String()
	if !strings.Contains(out, "[trace_id=abc12345] [UI] → [user_message] hello") {
		t.Errorf("unexpected output: %q", out)
	}
	// The encoder must not prepend zap's own timestamp or level.
	if !strings.HasPrefix(out, "[") {
		t.Errorf("output carries encoder decoration: %q", out)
	}
}

func TestLogger_ErrorEvents(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(ComponentAIService, &buf)

	log.Event(Outbound, "chat_error", "boom", "t1")
	log.Event(Inbound, "upload_failed", "boom", "t1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}
