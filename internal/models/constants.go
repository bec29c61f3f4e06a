// Package models defines the wire types shared by the filechat services
// and the client.
package models

// Default ports for the backend triad. Overridable through the environment,
// see internal/config.
const (
	DefaultAIServicePort = 8000
	DefaultFileAPIPort   = 8001
	DefaultMCPPort       = 8002
)

// Endpoint paths.
const (
	PathChat                = "/chat"
	PathElicitationComplete = "/elicitation/complete"
	PathHealth              = "/health"
	PathUpload              = "/upload"
	PathMCP                 = "/mcp"
)

// TraceHeader carries the per-operation trace id across service boundaries.
const TraceHeader = "X-Trace-ID"
