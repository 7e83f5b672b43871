package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolTransformClassString = "transform_class_string"
	ToolTransformSource      = "transform_source"
	ToolClassifyClass        = "classify_class"
)

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: transformClassStringTool(), Handler: s.handleTransformClassString},
		{Tool: transformSourceTool(), Handler: s.handleTransformSource},
		{Tool: classifyClassTool(), Handler: s.handleClassifyClass},
	}
}

func transformClassStringTool() mcp.Tool {
	return mcp.NewTool(ToolTransformClassString,
		mcp.WithDescription("Rewrite one class attribute value into canonical Tailwind form. "+
			"Custom class names are kept verbatim and in place."),
		mcp.WithString("value", mcp.Required(), mcp.Description("The class string, e.g. \"card bg-white p-4\"")),
		mcp.WithBoolean("obfuscate", mcp.Description("Replace canonical utilities with opaque identifiers")),
	)
}

func transformSourceTool() mcp.Tool {
	return mcp.NewTool(ToolTransformSource,
		mcp.WithDescription("Rewrite every class-list string in a JS/TS/JSX/TSX source file and list the recognized classes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("The file contents")),
		mcp.WithString("filename", mcp.Description("Used to pick the grammar from its extension. Default: TSX")),
		mcp.WithBoolean("obfuscate", mcp.Description("Replace canonical utilities with opaque identifiers")),
	)
}

func classifyClassTool() mcp.Tool {
	return mcp.NewTool(ToolClassifyClass,
		mcp.WithDescription("Explain how a single token is parsed as a Tailwind utility, with a suggestion when it is not one."),
		mcp.WithString("token", mcp.Required(), mcp.Description("One class token, e.g. \"hover:bg-red-500/50\"")),
	)
}
