package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/treegrep/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server exposing extraction as a tool",
	Long: `Mcp starts a Model Context Protocol server on stdio. It exposes a
single treegrep_extract tool that runs a tree-sitter query over a file
or source text and returns the matches as JSON.

Configure it in an MCP client as:
  {"command": "treegrep", "args": ["mcp"]}
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := mcp.NewServer(Version)
		if err != nil {
			return err
		}
		return srv.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
