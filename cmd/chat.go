package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/api"
	"github.com/lumen-ai/lumen-cli/env"
	"github.com/lumen-ai/lumen-cli/tui"
)

var chatModel string

var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "One-shot chat completion",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		credential, err := requireAPIKey()
		if err != nil {
			return err
		}
		model := cfg.ChatModel
		if chatModel != "" {
			model = chatModel
		}
		client := api.New(log, cfg.BaseURL, credential)

		var answer string
		var chatErr error
		tui.ShowSpinner("Thinking...", func() {
			answer, chatErr = client.ChatCompletion(cmd.Context(), api.ChatRequest{
				Model:    model,
				Messages: []api.Message{api.TextMessage("user", args[0])},
			})
		})
		if chatErr != nil {
			return chatErr
		}
		return printResult(answer)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatModel, "model", "", "chat model (default "+env.DefaultChatModel+")")
	rootCmd.AddCommand(chatCmd)
}
