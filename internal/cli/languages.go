package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treegrep/internal/languages"
)

// languagesCmd represents the languages command
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Long:  `Languages prints every supported language and its file extensions.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, lang := range languages.All() {
			fmt.Printf("%-12s %s\n", lang.Name(), strings.Join(lang.Extensions(), " "))
		}
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
