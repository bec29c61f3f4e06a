package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_SERVICE_URL", "")
	t.Setenv("AI_SERVICE_PORT", "")
	t.Setenv("FILE_API_PORT", "")
	t.Setenv("MCP_SERVER_PORT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg := Load()

	if cfg.AIServiceURL != "http://localhost:8000" {
		t.Errorf("AIServiceURL = %q, want http://localhost:8000", cfg.AIServiceURL)
	}
	if cfg.FileAPIPort != 8001 {
		t.Errorf("FileAPIPort = %d, want 8001", cfg.FileAPIPort)
	}
	if cfg.MCPPort != 8002 {
		t.Errorf("MCPPort = %d, want 8002", cfg.MCPPort)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want gpt-4o-mini", cfg.OpenAIModel)
	}
	if cfg.HasOpenAI() {
		t.Error("HasOpenAI should be false without a key")
	}
}

func TestLoad_ExplicitURLWins(t *testing.T) {
	t.Setenv("AI_SERVICE_URL", "http://ai.internal:9000")
	t.Setenv("AI_SERVICE_PORT", "8123")

	cfg := Load()

	if cfg.AIServiceURL != "http://ai.internal:9000" {
		t.Errorf("AIServiceURL = %q, explicit URL should win over port", cfg.AIServiceURL)
	}
}

func TestLoad_PortOverride(t *testing.T) {
	t.Setenv("AI_SERVICE_URL", "")
	t.Setenv("AI_SERVICE_PORT", "9100")

	cfg := Load()

	if cfg.AIServiceURL != "http://localhost:9100" {
		t.Errorf("AIServiceURL = %q, want http://localhost:9100", cfg.AIServiceURL)
	}
}

func TestLoad_BadPortFallsBack(t *testing.T) {
	t.Setenv("MCP_SERVER_PORT", "not-a-port")

	cfg := Load()

	if cfg.MCPPort != 8002 {
		t.Errorf("MCPPort = %d, want fallback 8002", cfg.MCPPort)
	}
}

func TestLoad_DataDir(t *testing.T) {
	t.Setenv("FILECHAT_DATA_DIR", "/tmp/filechat-test")

	cfg := Load()

	if cfg.DataDir != "/tmp/filechat-test" {
		t.Errorf("DataDir = %q, want /tmp/filechat-test", cfg.DataDir)
	}

	t.Setenv("FILECHAT_DATA_DIR", "")
	if Load().DataDir == "" {
		t.Error("DataDir should have a default")
	}
}

func TestDerivedURLs(t *testing.T) {
	t.Setenv("FILE_API_PORT", "")
	t.Setenv("MCP_SERVER_PORT", "")

	cfg := Load()

	if cfg.MCPServerURL() != "http://localhost:8002/mcp" {
		t.Errorf("MCPServerURL = %q", cfg.MCPServerURL())
	}
	if cfg.FileUploadURL() != "http://localhost:8001/upload" {
		t.Errorf("FileUploadURL = %q", cfg.FileUploadURL())
	}
}
