package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filechat/internal/config"
	"filechat/internal/render"
	"filechat/internal/transcript"
)

var transcriptJSONFlag bool

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Manage saved chat transcripts",
	Long: `List, show, export, and delete transcripts saved by 'filechat chat'.

Transcripts can be referenced by index, by ID, by a title substring, or
with @last for the most recent session.`,
}

var transcriptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved transcripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscriptStore()
		if err != nil {
			return err
		}
		all, err := store.List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No saved transcripts.")
			return nil
		}
		for i, t := range all {
			fmt.Printf("%3d  %s  %-40s  %s\n", i+1, t.CreatedAt.Format("2006-01-02 15:04"), t.Title, t.ID)
		}
		return nil
	},
}

var transcriptShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Render a transcript in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscriptStore()
		if err != nil {
			return err
		}
		id, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		md, err := store.Export(id, transcript.ExportFormatMarkdown)
		if err != nil {
			return err
		}
		out, err := render.MarkdownWithWidth(md, 80)
		if err != nil {
			// Fall back to the raw markdown when styling fails.
			out = md
		}
		fmt.Println(out)
		return nil
	},
}

var transcriptExportCmd = &cobra.Command{
	Use:   "export <ref> [output-file]",
	Short: "Export a transcript as Markdown or JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscriptStore()
		if err != nil {
			return err
		}
		id, err := store.Resolve(args[0])
		if err != nil {
			return err
		}

		format := transcript.ExportFormatMarkdown
		if transcriptJSONFlag {
			format = transcript.ExportFormatJSON
		}
		out, err := store.Export(id, format)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			if err := os.WriteFile(args[1], []byte(out), 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Printf("Exported %s to %s\n", id, args[1])
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

var transcriptRmCmd = &cobra.Command{
	Use:   "rm <ref>",
	Short: "Delete a saved transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscriptStore()
		if err != nil {
			return err
		}
		id, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", id)
		return nil
	},
}

func openTranscriptStore() (*transcript.Store, error) {
	return transcript.NewStore(config.Load().DataDir)
}

func init() {
	transcriptExportCmd.Flags().BoolVar(&transcriptJSONFlag, "json", false, "Export as JSON instead of Markdown")

	transcriptCmd.AddCommand(transcriptListCmd)
	transcriptCmd.AddCommand(transcriptShowCmd)
	transcriptCmd.AddCommand(transcriptExportCmd)
	transcriptCmd.AddCommand(transcriptRmCmd)
	rootCmd.AddCommand(transcriptCmd)
}
