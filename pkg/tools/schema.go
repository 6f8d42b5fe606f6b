package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// readOnly returns the annotations every tool of this server carries: it never
// modifies upstream state. idempotent is false for live feeds and free-form queries.
func readOnly(title string, idempotent, openWorld bool) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(idempotent),
		mcp.WithOpenWorldHintAnnotation(openWorld),
	}
}

// newTool builds a tool from its description, annotations and parameters.
func newTool(name, description string, annotations []mcp.ToolOption, params ...mcp.ToolOption) mcp.Tool {
	opts := make([]mcp.ToolOption, 0, 1+len(annotations)+len(params))
	opts = append(opts, mcp.WithDescription(description))
	opts = append(opts, annotations...)
	opts = append(opts, params...)
	return mcp.NewTool(name, opts...)
}

// ErrorResponse is used for consistent error reporting
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}
