package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve turns a user-facing reference into a transcript ID.
//
// Accepted forms:
//   - "@last" for the most recent transcript
//   - "1", "2", ... for the Nth transcript in List order (newest first)
//   - a "chat-..." ID
//   - a case-insensitive title substring (must match exactly one)
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty transcript reference")
	}

	if strings.HasPrefix(ref, "chat-") {
		return ref, nil
	}

	all, err := s.List()
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", fmt.Errorf("no saved transcripts")
	}

	if ref == "@last" {
		return all[0].ID, nil
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(all) {
			return "", fmt.Errorf("transcript index out of range: %d (have %d)", n, len(all))
		}
		return all[n-1].ID, nil
	}

	var matches []*Transcript
	needle := strings.ToLower(ref)
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no transcript matches %q", ref)
	case 1:
		return matches[0].ID, nil
	default:
		titles := make([]string, len(matches))
		for i, t := range matches {
			titles[i] = t.Title
		}
		return "", fmt.Errorf("%q matches %d transcripts: %s", ref, len(matches), strings.Join(titles, ", "))
	}
}
