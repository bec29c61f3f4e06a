// Package config reads the filechat environment configuration. The
// environment is read once at startup and the resulting struct is injected
// into clients and services, so tests can point components at mock
// endpoints without touching process globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"filechat/internal/models"
)

// Config holds every knob the client and the three services read from the
// environment.
type Config struct {
	// AIServiceURL is the base URL the chat client talks to. Derived from
	// AI_SERVICE_URL, or AI_SERVICE_PORT on localhost when unset.
	AIServiceURL string

	// Service listen ports.
	AIServicePort int
	FileAPIPort   int
	MCPPort       int

	// UploadDir is where the file API stores uploaded files.
	UploadDir string

	// DataDir is where the chat client keeps local state such as saved
	// transcripts. Derived from FILECHAT_DATA_DIR.
	DataDir string

	// OpenAI settings for the AI service. An empty key is not fatal: the
	// service falls back to keyword-based responses.
	OpenAIKey   string
	OpenAIModel string
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := Config{
		AIServicePort: envInt("AI_SERVICE_PORT", models.DefaultAIServicePort),
		FileAPIPort:   envInt("FILE_API_PORT", models.DefaultFileAPIPort),
		MCPPort:       envInt("MCP_SERVER_PORT", models.DefaultMCPPort),
		UploadDir:     envString("UPLOAD_DIR", "uploads"),
		DataDir:       envString("FILECHAT_DATA_DIR", defaultDataDir()),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envString("OPENAI_MODEL", "gpt-4o-mini"),
	}

	cfg.AIServiceURL = os.Getenv("AI_SERVICE_URL")
	if cfg.AIServiceURL == "" {
		cfg.AIServiceURL = fmt.Sprintf("http://localhost:%d", cfg.AIServicePort)
	}

	return cfg
}

// MCPServerURL returns the MCP endpoint the AI service calls.
func (c Config) MCPServerURL() string {
	return fmt.Sprintf("http://localhost:%d%s", c.MCPPort, models.PathMCP)
}

// FileUploadURL returns the upload endpoint the MCP server hands out.
func (c Config) FileUploadURL() string {
	return fmt.Sprintf("http://localhost:%d%s", c.FileAPIPort, models.PathUpload)
}

// HasOpenAI reports whether an API key is configured.
func (c Config) HasOpenAI() bool {
	return c.OpenAIKey != ""
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".filechat"
	}
	return filepath.Join(base, "filechat")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
