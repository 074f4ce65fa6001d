package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/router"
)

// statusClientClosedRequest mirrors nginx's non-standard 499 for requests
// the caller abandoned; a client abort is not an upstream failure.
const statusClientClosedRequest = 499

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildMux(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildMux assembles the HTTP routes over the wired pipeline.
func buildMux(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, env.Router.Metrics())
	})

	r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ImageBase64   string `json:"image_base64"`
			OCRText       string `json:"ocr_text"`
			CorrelationID string `json:"correlation_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		image, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil || len(image) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image_base64 is required"})
			return
		}

		result, err := env.Router.Extract(req.Context(), model.Request{
			ImageRef:      image,
			OCRText:       body.OCRText,
			CorrelationID: body.CorrelationID,
		})
		if err != nil {
			writeJSON(w, extractionStatus(err), extractionErrorBody(err))
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func extractionStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func extractionErrorBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	var provErr *router.ProviderError
	if errors.As(err, &provErr) {
		body["provider"] = string(provErr.Provider)
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
