package cmd

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/api"
	"github.com/lumen-ai/lumen-cli/mcp/host"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chat and image analysis as MCP tools over stdio",
	Long: `Runs a local MCP tool host on stdin/stdout so agents can use this
client as a tool provider. Diagnostics go to stderr; stdout carries only
protocol frames.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		credential, err := requireAPIKey()
		if err != nil {
			return err
		}
		client := api.New(log, cfg.BaseURL, credential)

		server := host.New("lumen", api.Version, os.Stdin, os.Stdout, log)
		server.Register(host.Tool{
			Name:        "chat",
			Description: "Send a prompt to the chat model and return its reply",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{"type": "string"},
				},
				"required": []string{"prompt"},
			},
			Handler: func(ctx context.Context, arguments map[string]any) (any, error) {
				prompt, _ := arguments["prompt"].(string)
				if prompt == "" {
					return nil, errors.New("prompt is required")
				}
				return client.ChatCompletion(ctx, api.ChatRequest{
					Model:    cfg.ChatModel,
					Messages: []api.Message{api.TextMessage("user", prompt)},
				})
			},
		})
		server.Register(host.Tool{
			Name:        "analyze_image",
			Description: "Answer a question about an image file on disk",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"image_path": map[string]any{"type": "string"},
					"prompt":     map[string]any{"type": "string"},
				},
				"required": []string{"image_path"},
			},
			Handler: func(ctx context.Context, arguments map[string]any) (any, error) {
				imagePath, _ := arguments["image_path"].(string)
				if imagePath == "" {
					return nil, errors.New("image_path is required")
				}
				prompt, _ := arguments["prompt"].(string)
				if prompt == "" {
					prompt = defaultVisionPrompt
				}
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return nil, errors.Wrapf(err, "reading %s", imagePath)
				}
				mimeType, err := imageMIMEType(imagePath)
				if err != nil {
					return nil, err
				}
				return client.ChatCompletion(ctx, api.ChatRequest{
					Model:    cfg.VisionModel,
					Messages: []api.Message{api.VisionMessage(prompt, api.EncodeImageDataURL(mimeType, data))},
				})
			},
		})

		log.Info("serving MCP tools on stdio")
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
