package transcript

import (
	"strings"
	"testing"
	"time"

	"filechat/internal/models"
)

func seedResolver(t *testing.T) (*Store, []string) {
	t.Helper()
	s := newTestStore(t)

	var ids []string
	for _, title := range []string{"upload the report", "weather question", "upload pictures"} {
		saved, err := s.Save([]models.Message{{Kind: models.KindUser, Text: title}}, "")
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		ids = append(ids, saved.ID)
		time.Sleep(5 * time.Millisecond)
	}
	// List order is newest first, so reverse to match.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return s, ids
}

func TestResolveLast(t *testing.T) {
	s, ids := seedResolver(t)

	got, err := s.Resolve("@last")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != ids[0] {
		t.Errorf("expected newest transcript %s, got %s", ids[0], got)
	}
}

func TestResolveIndex(t *testing.T) {
	s, ids := seedResolver(t)

	got, err := s.Resolve("2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != ids[1] {
		t.Errorf("expected %s, got %s", ids[1], got)
	}

	if _, err := s.Resolve("9"); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := s.Resolve("0"); err == nil {
		t.Error("expected out of range error for index 0")
	}
}

func TestResolveDirectID(t *testing.T) {
	s, ids := seedResolver(t)

	got, err := s.Resolve(ids[2])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != ids[2] {
		t.Errorf("expected %s, got %s", ids[2], got)
	}
}

func TestResolveSubstring(t *testing.T) {
	s, _ := seedResolver(t)

	got, err := s.Resolve("weather")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	tr, err := s.Get(got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tr.Title != "weather question" {
		t.Errorf("resolved wrong transcript: %q", tr.Title)
	}
}

func TestResolveAmbiguousSubstring(t *testing.T) {
	s, _ := seedResolver(t)

	_, err := s.Resolve("upload")
	if err == nil {
		t.Fatal("expected ambiguity error")
	}
	if !strings.Contains(err.Error(), "matches 2 transcripts") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveEmptyAndMissing(t *testing.T) {
	s, _ := seedResolver(t)

	if _, err := s.Resolve(""); err == nil {
		t.Error("expected error for empty reference")
	}
	if _, err := s.Resolve("nothing matches this"); err == nil {
		t.Error("expected error for unmatched substring")
	}
}

func TestResolveWithNoTranscripts(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Resolve("@last"); err == nil {
		t.Fatal("expected error with empty store")
	}
}
