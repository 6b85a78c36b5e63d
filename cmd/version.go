package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/api"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  exactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lumen %s (%s)\n", api.Version, api.Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
