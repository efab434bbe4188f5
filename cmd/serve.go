package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"uploadagent/internal/app"
	"uploadagent/pkg/config"
)

var (
	serveAddr        string
	serveSessionIdle time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the metadata and upload endpoints used by the browser client,
plus the session API that drives the input, preview and summary workflow.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (defaults to server.addr or PORT)")
	serveCmd.Flags().DurationVar(&serveSessionIdle, "session-idle", 30*time.Minute, "Drop workflow sessions idle for longer than this")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	server := service.NewServer()
	go server.SweepSessions(ctx, time.Minute, serveSessionIdle)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening",
			"addr", cfg.Server.Addr,
			"llm", service.LLM().Provider(),
			"demo", !cfg.HasPlatformCredentials(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
