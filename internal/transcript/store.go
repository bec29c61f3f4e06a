// Package transcript persists chat sessions to disk so a conversation can
// be reviewed or exported after the TUI exits. Each transcript is a single
// JSON file under <dataDir>/transcripts.
package transcript

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filechat/internal/models"
)

// Entry is a single recorded message.
type Entry struct {
	Kind models.Kind `json:"kind"`
	Text string      `json:"text"`
}

// Transcript is a saved chat session.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TraceID   string    `json:"trace_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Store reads and writes transcripts under a base directory.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates the transcripts directory if needed and returns a store.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcripts directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save records a finished session. The title is taken from the first user
// message, truncated for display. Sessions with no messages are skipped.
func (s *Store) Save(messages []models.Message, traceID string) (*Transcript, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &Transcript{
		ID:        newID(now),
		Title:     titleFor(messages, now),
		TraceID:   traceID,
		CreatedAt: now,
	}
	for _, m := range messages {
		t.Entries = append(t.Entries, Entry{Kind: m.Kind, Text: m.Text})
	}

	if err := s.write(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get loads a transcript by ID.
func (s *Store) Get(id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", id, err)
	}
	return &t, nil
}

// List returns all transcripts, newest first. Entries are loaded in full;
// the store is sized for local chat sessions, not bulk archives.
func (s *Store) List() ([]*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	var out []*Transcript
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			continue
		}
		var t Transcript
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		out = append(out, &t)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a transcript by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("transcript not found: %s", id)
		}
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) write(t *Transcript) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := os.WriteFile(s.path(t.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func newID(now time.Time) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("chat-%d", now.UnixNano())
	}
	return fmt.Sprintf("chat-%d-%s", now.Unix(), hex.EncodeToString(suffix))
}

func titleFor(messages []models.Message, now time.Time) string {
	for _, m := range messages {
		if m.Kind != models.KindUser {
			continue
		}
		title := strings.TrimSpace(m.Text)
		if title == "" {
			continue
		}
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		return title
	}
	return "Chat " + now.Format("2006-01-02 15:04")
}
