package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the treegrep_extract tool:
// - Valid source request returns matches with 1-based positions
// - Valid path request reads the file and records its path
// - No matches yields a null result, not an error
// - Missing/conflicting arguments and unknown languages are tool errors
// - Query compile errors are tool errors, not protocol errors

func newTestHandler(t *testing.T) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.Helper()
	cache, err := NewExtractorCache(16)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return createExtractHandler(cache)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result)
	return result
}

func decodeResponse(t *testing.T, result *mcp.CallToolResult) ExtractResponse {
	t.Helper()
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")

	var response ExtractResponse
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &response))
	return response
}

func TestExtractHandler_Source(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	result := callTool(t, handler, map[string]interface{}{
		"language": "rust",
		"query":    `(function_item (identifier) @id) @function`,
		"source":   `fn main(){println!("hello");}`,
	})

	assert.False(t, result.IsError)
	response := decodeResponse(t, result)
	require.NotNil(t, response.Result)
	assert.Equal(t, "rust", response.Result.FileType)
	assert.Equal(t, "", response.Result.File)
	require.Len(t, response.Result.Matches, 2)
	assert.Equal(t, "function", response.Result.Matches[0].Name)
	assert.Equal(t, "main", response.Result.Matches[1].Text)
}

func TestExtractHandler_Path(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn alpha(){}\n"), 0644))

	handler := newTestHandler(t)
	result := callTool(t, handler, map[string]interface{}{
		"language": "rust",
		"query":    `(function_item name: (identifier) @name)`,
		"path":     path,
	})

	assert.False(t, result.IsError)
	response := decodeResponse(t, result)
	require.NotNil(t, response.Result)
	assert.Equal(t, path, response.Result.File)
	require.Len(t, response.Result.Matches, 1)
	assert.Equal(t, "alpha", response.Result.Matches[0].Text)
}

func TestExtractHandler_NoMatches(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	result := callTool(t, handler, map[string]interface{}{
		"language": "rust",
		"query":    `(struct_item) @s`,
		"source":   "fn main(){}",
	})

	assert.False(t, result.IsError)
	response := decodeResponse(t, result)
	assert.Nil(t, response.Result)
}

func TestExtractHandler_ArgumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing language", map[string]interface{}{
			"query": "(function_item) @f", "source": "fn main(){}",
		}},
		{"missing query", map[string]interface{}{
			"language": "rust", "source": "fn main(){}",
		}},
		{"missing input", map[string]interface{}{
			"language": "rust", "query": "(function_item) @f",
		}},
		{"both inputs", map[string]interface{}{
			"language": "rust", "query": "(function_item) @f",
			"source": "fn main(){}", "path": "main.rs",
		}},
		{"unknown language", map[string]interface{}{
			"language": "cobol", "query": "(function_item) @f", "source": "fn main(){}",
		}},
		{"malformed query", map[string]interface{}{
			"language": "rust", "query": "(function_item @oops", "source": "fn main(){}",
		}},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, tt.args)
			assert.True(t, result.IsError, "expected tool error")
		})
	}
}
