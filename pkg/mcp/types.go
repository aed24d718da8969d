package mcp

// Tool is the wire form of one tool definition in tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the wire form of a tools/call outcome. Data carries the
// structured value alongside the text rendering; on failures it holds
// the fault kind and whether a plain retry can help.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
	Data    interface{}   `json:"data,omitempty"`
}
