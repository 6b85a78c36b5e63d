package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/env"
	"github.com/lumen-ai/lumen-cli/tui"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up the API key and defaults interactively",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.HasTTY {
			return errors.New("configure needs an interactive terminal; set LUMEN_API_KEY instead")
		}

		fmt.Println(tui.Title("Lumen CLI setup"))

		key := tui.Password(log, "API key", "Paste your provider API key. It is stored in "+env.ConfigFile())
		if key != "" {
			cfg.APIKey = key
		}
		baseURL := tui.InputWithPlaceholder(log, "Base URL", "Provider endpoint", cfg.BaseURL)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		chatModel := tui.InputWithPlaceholder(log, "Chat model", "Default model for `lumen chat`", cfg.ChatModel)
		if chatModel != "" {
			cfg.ChatModel = chatModel
		}

		if err := env.Save(cfgFile, cfg); err != nil {
			return err
		}
		fmt.Println(tui.Secondary("Saved. Try ") + tui.Command("search", "\"golang generics\""))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
