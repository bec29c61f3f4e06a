package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"filechat/internal/api"
	"filechat/internal/config"
	"filechat/internal/orchestrator"
	"filechat/internal/transcript"
	"filechat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the AI service.

When the service asks for a file, a picker opens in the terminal. Attach a
file up front with Ctrl+A to have it streamed automatically.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat requires an interactive terminal")
	}

	url := serviceURL()
	client := api.NewClient(url)

	spin := newSpinner("Connecting to AI service")
	spin.start()
	if err := client.Health(context.Background()); err != nil {
		spin.stopWithError()
		return fmt.Errorf("AI service unreachable at %s: %w", url, err)
	}
	spin.stopWithSuccess("Connected")

	orch := orchestrator.New(client)
	if err := tui.RunChat(orch, url); err != nil {
		return err
	}

	saveTranscript(orch)
	return nil
}

// saveTranscript writes the finished session to the local transcript store.
// Failures are reported but never turn a clean exit into an error.
func saveTranscript(orch *orchestrator.Orchestrator) {
	store, err := transcript.NewStore(config.Load().DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open transcript store: %v\n", err)
		return
	}

	saved, err := store.Save(orch.Messages(), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save transcript: %v\n", err)
		return
	}
	if saved != nil {
		fmt.Printf("Transcript saved: %s\n", saved.ID)
	}
}
