package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/treegrep/internal/extract"
	"github.com/mvp-joe/treegrep/internal/languages"
)

// ExtractRequest is the parsed argument set of the treegrep_extract tool.
type ExtractRequest struct {
	Language string
	Query    string
	Path     string
	Source   string
}

// ExtractResponse is the tool's JSON payload.
type ExtractResponse struct {
	// Result is null when the query produced no matches.
	Result *extract.ExtractedFile `json:"result"`
}

// AddExtractTool registers the treegrep_extract tool with an MCP server.
// This function is composable - it can be combined with other tool
// registrations.
func AddExtractTool(s *server.MCPServer, cache *ExtractorCache) {
	tool := mcp.NewTool(
		"treegrep_extract",
		mcp.WithDescription("Run a tree-sitter query over a source file or source text and return the captured nodes with their names, text, and 1-based positions. Captures whose name starts with '_' are omitted from results."),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Source language (c, java, php, python, ruby, rust, typescript, tsx)")),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Tree-sitter query with named captures, e.g. '(function_item (identifier) @id) @function'")),
		mcp.WithString("path",
			mcp.Description("Path of the file to extract from. Provide either path or source, not both.")),
		mcp.WithString("source",
			mcp.Description("Raw source text to extract from. Provide either path or source, not both.")),
	)

	s.AddTool(tool, createExtractHandler(cache))
}

// createExtractHandler creates the handler function for treegrep_extract.
func createExtractHandler(cache *ExtractorCache) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := parseExtractRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		lang, err := languages.FromName(args.Language)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		extractor, err := cache.Get(lang, args.Query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		parser := sitter.NewParser()
		defer parser.Close()

		var file *extract.ExtractedFile
		if args.Path != "" {
			file, err = extractor.ExtractFromFile(args.Path, parser)
		} else {
			file, err = extractor.ExtractFromText("", []byte(args.Source), parser)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.Marshal(ExtractResponse{Result: file})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// parseExtractRequest validates the raw MCP arguments.
func parseExtractRequest(request mcp.CallToolRequest) (*ExtractRequest, error) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}

	var args ExtractRequest

	language, ok := argsMap["language"].(string)
	if !ok || language == "" {
		return nil, fmt.Errorf("language parameter is required")
	}
	args.Language = language

	query, ok := argsMap["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query parameter is required")
	}
	args.Query = query

	if path, ok := argsMap["path"].(string); ok {
		args.Path = path
	}
	if source, ok := argsMap["source"].(string); ok {
		args.Source = source
	}

	if args.Path == "" && args.Source == "" {
		return nil, fmt.Errorf("either path or source is required")
	}
	if args.Path != "" && args.Source != "" {
		return nil, fmt.Errorf("path and source are mutually exclusive")
	}

	return &args, nil
}
