package commands

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"filechat/internal/aiservice"
	"filechat/internal/config"
	"filechat/internal/fileapi"
	"filechat/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve [ai|files|mcp]",
	Short: "Run one of the backend services",
	Long: `Run one of the three backend services in the foreground.

  ai     AI orchestration service        (port 8000, /chat)
  files  File storage service            (port 8001, /upload)
  mcp    MCP tool server                 (port 8002, /mcp)

Each service reads its port and peers from the environment:
AI_SERVICE_PORT, FILE_API_PORT, MCP_SERVER_PORT, UPLOAD_DIR,
OPENAI_API_KEY, OPENAI_MODEL.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ai", "files", "mcp"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(args[0])
	},
}

func runServe(name string) error {
	cfg := config.Load()

	switch name {
	case "ai":
		opts := []aiservice.Option{}
		if cfg.HasOpenAI() {
			opts = append(opts, aiservice.WithLLM(openai.NewClient(cfg.OpenAIKey), cfg.OpenAIModel))
		}
		srv := aiservice.NewServer(mcp.NewClient(cfg.MCPServerURL()), opts...)
		return srv.ListenAndServe(cfg.AIServicePort)

	case "files":
		srv := fileapi.NewServer(cfg.UploadDir)
		return srv.ListenAndServe(cfg.FileAPIPort)

	case "mcp":
		srv := mcp.NewServer(cfg.FileUploadURL())
		return srv.ListenAndServe(cfg.MCPPort)

	default:
		return fmt.Errorf("unknown service %q (want ai, files, or mcp)", name)
	}
}
