package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/router"
)

var batchConcurrency int

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every receipt image in a directory and report metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		if err := processDir(cmd.Context(), env.Router, args[0], concurrency); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(env.Router.Metrics())
	},
}

// processDir extracts every receipt image in dir, picking up a sibling .txt
// file as OCR text when present. Individual extraction failures are logged
// and do not abort the batch.
func processDir(ctx context.Context, rt *router.Router, dir string, concurrency int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "read directory %s", dir)
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			image, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read image %s", path)
			}

			var ocrText string
			if textPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"; fileExists(textPath) {
				data, err := os.ReadFile(textPath)
				if err != nil {
					return eris.Wrapf(err, "read OCR text %s", textPath)
				}
				ocrText = string(data)
			}

			result, err := rt.Extract(ctx, model.Request{
				ImageRef:      image,
				OCRText:       ocrText,
				CorrelationID: entry.Name(),
			})
			if err != nil {
				// One bad receipt should not abort the batch.
				zap.L().Error("extraction failed",
					zap.String("file", path),
					zap.Error(err),
				)
				return nil
			}

			zap.L().Info("extracted receipt",
				zap.String("file", path),
				zap.Int64("total_minor", result.TotalMinor),
				zap.String("provider", string(result.Provider)),
				zap.Float64("confidence", result.Confidence),
			)
			return nil
		})
	}

	return g.Wait()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent extractions (default from config)")
	rootCmd.AddCommand(batchCmd)
}
