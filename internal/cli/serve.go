package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiztaker/internal/metrics"
	transport "quiztaker/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand that runs the reference quiz API.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stdout, "quiztaker-api")

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	backend, err := newQuizBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	m := metrics.New()
	opts := []transport.APIOption{
		transport.WithRevealAnswers(cfg.Quiz.RevealAnswers),
		transport.WithAPILogger(log),
		transport.WithAPIMetrics(m),
	}
	if backend.recorder != nil {
		opts = append(opts, transport.WithRecorder(backend.recorder))
	}
	handler := transport.NewAPIHandler(backend.source, opts...)

	return serveUntilSignal(ctx, log, listenPort(cfg, portFlag), handler.Routes())
}

func serveUntilSignal(ctx context.Context, log logrus.FieldLogger, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", port).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
