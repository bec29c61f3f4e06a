// Package flowlog provides the structured flow logging used across the
// filechat services: one line per event, with a trace id threading every
// hop of a user-initiated operation.
package flowlog

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Component names used in flow log lines.
const (
	ComponentUI        = "UI"
	ComponentAIService = "AI_SERVICE"
	ComponentFileAPI   = "FILE_API"
	ComponentMCPServer = "MCP_SERVER"
	ComponentMCPClient = "MCP_CLIENT"
	ComponentLLM       = "LLM"
	ComponentTool      = "TOOL"
)

// Direction arrows: Outbound for requests leaving a component, Inbound for
// responses and requests arriving at it.
const (
	Outbound = "→"
	Inbound  = "←"
)

// NewTraceID returns an 8-character token for end-to-end request tracking.
// Short ids keep log lines readable; uniqueness is probabilistic, which is
// fine for correlating one operation's log lines.
func NewTraceID() string {
	return uuid.NewString()[:8]
}

// RedactURL strips query parameters and fragments from a URL, keeping
// scheme, host and path. Values that do not parse as absolute URLs are
// returned as-is, truncated at the first '?'.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)
}

// Field is an ordered key/value pair appended to a log line. A nil value
// omits the field entirely.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Format renders one flow log line:
//
//	[timestamp] [trace_id=…] [component] direction [event] summary | key=value …
//
// The timestamp has millisecond precision. Fields whose key contains "url"
// are redacted before inclusion; fields with nil values are dropped.
func Format(component, direction, event, summary, traceID string, fields ...Field) string {
	return formatAt(time.Now(), component, direction, event, summary, traceID, fields...)
}

func formatAt(ts time.Time, component, direction, event, summary, traceID string, fields ...Field) string {
	parts := make([]string, 0, 6)
	parts = append(parts, "["+ts.Format("2006-01-02 15:04:05.000")+"]")
	if traceID != "" {
		parts = append(parts, "[trace_id="+traceID+"]")
	}
	parts = append(parts, "["+component+"]", direction, "["+event+"]", summary)

	var extras []string
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		value := fmt.Sprintf("%v", f.Value)
		if strings.Contains(strings.ToLower(f.Key), "url") {
			value = RedactURL(value)
		}
		extras = append(extras, f.Key+"="+value)
	}
	if len(extras) > 0 {
		parts = append(parts, "| "+strings.Join(extras, " "))
	}

	return strings.Join(parts, " ")
}
