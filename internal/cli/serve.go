package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/triage/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the triage engine for the project in --dir.

Endpoints:
  GET  /health       Health check
  POST /api/tier     Recommend a review tier for a diff or file list
  POST /api/select   Rank changed files and select the critical ones
  POST /api/parse    Parse a diff into structured files
  GET  /api/ws       WebSocket triage sessions
  GET  /metrics      Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6142, "port to listen on")
	serveCmd.Flags().IntP("max-files", "n", 0, "default number of files to select")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")

	classifier := a.classifier()
	srv := api.New(fmt.Sprintf("%s:%d", addr, port), api.Options{
		Root:          a.base,
		Classifier:    classifier,
		CriticalPaths: a.settings.CriticalPaths,
		MaxFiles:      a.settings.MaxFiles,
		Logger:        a.logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}
