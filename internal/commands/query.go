package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"filechat/internal/api"
	"filechat/internal/config"
	"filechat/internal/flowlog"
	"filechat/internal/models"
	"filechat/internal/render"
)

// serviceURL returns the AI service base URL, with the flag winning over
// the environment.
func serviceURL() string {
	if serviceFlag != "" {
		return serviceFlag
	}
	return config.Load().AIServiceURL
}

// runQuery sends a single message to the AI service and prints the
// response. File elicitations cannot be satisfied here; the interactive
// chat command handles those.
func runQuery(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	client := api.NewClient(serviceURL(), api.WithLogger(flowlog.Nop()))

	var spin *spinner
	if isTTY && outputFlag == "" {
		spin = newSpinner("Waiting for response")
		spin.start()
	}

	resp, err := client.SendChat(context.Background(), models.ChatRequest{Message: prompt}, flowlog.NewTraceID())
	if spin != nil {
		if err != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Response received")
		}
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	text := resp.Response
	if resp.Elicitation != nil {
		text += "\n\n(The service requested a file upload. Run 'filechat chat' to upload files interactively.)"
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Response saved to %s\n", outputFlag)
		return nil
	}

	if !isTTY {
		fmt.Println(text)
		return nil
	}

	rendered, err := render.MarkdownWithWidth(text, 80)
	if err != nil {
		fmt.Println(text)
		return nil
	}
	label := assistantLabelStyle.Render("✦ Assistant")
	bubble := assistantBubbleStyle.Render(strings.TrimRight(rendered, "\n"))
	fmt.Println(label + "\n" + bubble)
	return nil
}
