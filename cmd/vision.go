package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lumen-ai/lumen-cli/api"
	"github.com/lumen-ai/lumen-cli/env"
	"github.com/lumen-ai/lumen-cli/tui"
)

var visionModel string

const defaultVisionPrompt = "Describe this image."

var visionCmd = &cobra.Command{
	Use:   "vision <image-file> [prompt]",
	Short: "Ask a question about an image",
	Args:  rangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		credential, err := requireAPIKey()
		if err != nil {
			return err
		}

		imagePath := args[0]
		prompt := defaultVisionPrompt
		if len(args) == 2 {
			prompt = args[1]
		}

		data, err := os.ReadFile(imagePath)
		if err != nil {
			if os.IsNotExist(err) {
				return &usageError{err: errors.Newf("image file not found: %s", imagePath)}
			}
			return errors.Wrapf(err, "reading %s", imagePath)
		}
		mimeType, err := imageMIMEType(imagePath)
		if err != nil {
			return &usageError{err: err}
		}

		model := cfg.VisionModel
		if visionModel != "" {
			model = visionModel
		}
		client := api.New(log, cfg.BaseURL, credential)

		var answer string
		var visionErr error
		tui.ShowSpinner("Analyzing image...", func() {
			answer, visionErr = client.ChatCompletion(cmd.Context(), api.ChatRequest{
				Model:    model,
				Messages: []api.Message{api.VisionMessage(prompt, api.EncodeImageDataURL(mimeType, data))},
			})
		})
		if visionErr != nil {
			return visionErr
		}
		return printResult(answer)
	},
}

func imageMIMEType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", errors.Newf("unsupported image type: %s (png, jpeg, gif, and webp are supported)", filepath.Ext(path))
	}
}

func init() {
	visionCmd.Flags().StringVar(&visionModel, "model", "", "vision model (default "+env.DefaultVisionModel+")")
	rootCmd.AddCommand(visionCmd)
}
