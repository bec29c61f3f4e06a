package models

import "encoding/json"

// JSON-RPC 2.0 envelope used by the MCP HTTP transport.

// RPCRequest is a JSON-RPC request sent to the MCP server.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCResponse is a JSON-RPC response envelope. Exactly one of Result or
// Error is populated.
type RPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object. Data carries the elicitation payload
// for URLElicitationRequiredError responses.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// MCP protocol constants, per the 2025-11-25 revision this system targets.
const (
	MCPProtocolVersion = "2025-11-25"

	// CodeElicitationRequired is returned when a tool call cannot proceed
	// until the client completes a URL-mode elicitation.
	CodeElicitationRequired = -32042

	// CodeMethodNotFound is the standard JSON-RPC "method not found" code,
	// also used for unknown tools.
	CodeMethodNotFound = -32601

	ToolRequestFileProcess = "request_file_process"
)

// ToolContent is a single content block in a tools/call result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result payload of a successful tools/call.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}
