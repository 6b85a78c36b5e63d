package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/mcp"
)

var repoCmd = &cobra.Command{
	Use:   "repo <owner/name> <question>",
	Short: "Ask a question about a source repository",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := callTool(cmd, mcp.RepoReader, "repoReader", map[string]any{
			"repo_name": args[0],
			"query":     args[1],
		})
		if err != nil {
			return err
		}
		return printResult(value)
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
}
