package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/mcp"
)

var readRetainImages bool

var readCmd = &cobra.Command{
	Use:   "read <url>",
	Short: "Fetch a web page as readable text",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arguments := map[string]any{"url": args[0]}
		if readRetainImages {
			arguments["retain_images"] = true
		}
		value, err := callTool(cmd, mcp.WebReader, "webReader", arguments)
		if err != nil {
			return err
		}
		return printResult(value)
	},
}

func init() {
	readCmd.Flags().BoolVar(&readRetainImages, "retain-images", false, "keep image references in the extracted text")
	rootCmd.AddCommand(readCmd)
}
