package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filechat/internal/models"
)

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("working")
	s.start()
	time.Sleep(10 * time.Millisecond)

	s.stopOnce()
	s.stopOnce() // must not panic on double stop
	<-s.done
}

func TestRunServeUnknownService(t *testing.T) {
	err := runServe("bogus")
	if err == nil {
		t.Fatal("expected error for unknown service")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error should name the service: %v", err)
	}
}

func TestRunQueryEmptyPrompt(t *testing.T) {
	if err := runQuery("   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestServiceURLFlagWins(t *testing.T) {
	old := serviceFlag
	defer func() { serviceFlag = old }()

	serviceFlag = "http://example.test:9999"
	if got := serviceURL(); got != "http://example.test:9999" {
		t.Errorf("serviceURL() = %q", got)
	}

	serviceFlag = ""
	t.Setenv("AI_SERVICE_URL", "http://env.test:8000")
	if got := serviceURL(); got != "http://env.test:8000" {
		t.Errorf("serviceURL() = %q", got)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chat", "serve", "transcript"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestOpenTranscriptStoreUsesDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FILECHAT_DATA_DIR", dir)

	store, err := openTranscriptStore()
	if err != nil {
		t.Fatalf("openTranscriptStore failed: %v", err)
	}

	saved, err := store.Save([]models.Message{{Kind: models.KindUser, Text: "hello"}}, "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "transcripts", saved.ID+".json")); err != nil {
		t.Errorf("transcript not written under data dir: %v", err)
	}
}
