package render

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\nSome *text*.", DefaultOptions())
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("rendered output missing heading text: %q", out)
	}
}

func TestMarkdownWithWidth(t *testing.T) {
	long := strings.Repeat("word ", 40)
	out, err := MarkdownWithWidth(long, 40)
	if err != nil {
		t.Fatalf("MarkdownWithWidth() error = %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		// Glamour pads lines to the wrap width, never past it by much.
		if len([]rune(line)) > 60 {
			t.Errorf("line exceeds wrap width: %q", line)
		}
	}
}

func TestMarkdownPoolReuse(t *testing.T) {
	opts := DefaultOptions().WithWidth(50)
	for i := 0; i < 3; i++ {
		if _, err := Markdown("plain text", opts); err != nil {
			t.Fatalf("render %d failed: %v", i, err)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Width != 80 {
		t.Errorf("Width = %d, want 80", opts.Width)
	}
	if opts.Style != "dark" {
		t.Errorf("Style = %q, want dark", opts.Style)
	}
	if !opts.PreserveNewLines {
		t.Error("PreserveNewLines should default to true")
	}
}
