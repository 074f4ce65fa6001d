package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/receipt-cli/internal/model"
)

var (
	extractTextFile      string
	extractCorrelationID string
)

var extractCmd = &cobra.Command{
	Use:   "extract <image-file>",
	Short: "Extract structured data from a single receipt image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read image %s", args[0])
		}

		var ocrText string
		if extractTextFile != "" {
			data, err := os.ReadFile(extractTextFile)
			if err != nil {
				return eris.Wrapf(err, "read OCR text %s", extractTextFile)
			}
			ocrText = string(data)
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Router.Extract(cmd.Context(), model.Request{
			ImageRef:      image,
			OCRText:       ocrText,
			CorrelationID: extractCorrelationID,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractTextFile, "text", "", "pre-extracted OCR text file for the cheap path")
	extractCmd.Flags().StringVar(&extractCorrelationID, "correlation-id", "", "correlation ID for attempt bookkeeping")
	rootCmd.AddCommand(extractCmd)
}
