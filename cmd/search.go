package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/mcp"
)

var searchCount int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arguments := map[string]any{"search_query": args[0]}
		if searchCount > 0 {
			arguments["count"] = searchCount
		}
		value, err := callTool(cmd, mcp.WebSearch, "webSearchPrime", arguments)
		if err != nil {
			return err
		}
		return printResult(value)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchCount, "count", 0, "number of results to return")
	rootCmd.AddCommand(searchCmd)
}
