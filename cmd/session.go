package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/str"
	"github.com/lumen-ai/lumen-cli/tui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage cached MCP sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cached sessions",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newSessionStore()
		records := store.Records(cmd.Context())
		if len(records) == 0 {
			fmt.Println(tui.Muted("no cached sessions"))
			return nil
		}
		now := time.Now()
		for key, rec := range records {
			endpoint, credential, _ := strings.Cut(key, "|")
			state := "valid"
			if !rec.Valid(now) {
				state = "expired"
			}
			expires := time.UnixMilli(rec.ExpiresAt).Format(time.RFC3339)
			fmt.Printf("%s  %s  key=%s  expires=%s (%s)\n",
				tui.Bold(rec.SessionID), endpoint, str.Mask(credential), expires, state)
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached session",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		newSessionStore().Clear(cmd.Context())
		fmt.Println("cleared")
		return nil
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop expired sessions, keeping valid ones",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		newSessionStore().Prune(cmd.Context())
		fmt.Println("pruned")
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd, sessionClearCmd, sessionPruneCmd)
	rootCmd.AddCommand(sessionCmd)
}
