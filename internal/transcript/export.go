package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"filechat/internal/models"
)

// ExportFormat selects the output format for an exported transcript.
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// Export renders a stored transcript in the given format.
func (s *Store) Export(id string, format ExportFormat) (string, error) {
	t, err := s.Get(id)
	if err != nil {
		return "", err
	}

	switch format {
	case ExportFormatMarkdown:
		return toMarkdown(t), nil
	case ExportFormatJSON:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode transcript: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func toMarkdown(t *Transcript) string {
	var sb strings.Builder

	sb.WriteString("# " + t.Title + "\n\n")
	sb.WriteString("*Saved: " + t.CreatedAt.Format("2006-01-02 15:04:05") + "*\n")
	if t.TraceID != "" {
		sb.WriteString("*Trace: " + t.TraceID + "*\n")
	}
	sb.WriteString("\n---\n\n")

	for _, e := range t.Entries {
		switch e.Kind {
		case models.KindUser:
			sb.WriteString("## You\n\n")
		case models.KindAssistant:
			sb.WriteString("## Assistant\n\n")
		case models.KindError:
			sb.WriteString("## Error\n\n")
		default:
			sb.WriteString("## System\n\n")
		}
		sb.WriteString(e.Text + "\n\n")
	}

	return sb.String()
}
