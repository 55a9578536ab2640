package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"quiztaker/internal/metrics"
	transport "quiztaker/internal/transport/http"
)

// NewBridgeCmd exposes one engine session to a browser view over WebSocket.
func NewBridgeCmd(configPath, port *string) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Drive a quiz session from a browser over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd.Context(), *configPath, *port, offline)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "serve quizzes in-process instead of calling api.base_url")
	return cmd
}

func runBridge(ctx context.Context, configPath, portFlag string, offline bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stdout, "quiztaker-bridge")

	scratch, closeScratch, err := newScratchStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeScratch()

	api, closeAPI, err := newQuizAPI(ctx, cfg, offline, log)
	if err != nil {
		return err
	}
	defer closeAPI()

	m := metrics.New()
	engine := newEngine(cfg, api, scratch, log, m)
	// keep the snapshot on shutdown so the session can resume
	defer engine.Suspend()
	wsHandler := transport.NewWSHandler(engine, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/ws", wsHandler.ServeWS)

	return serveUntilSignal(ctx, log, listenPort(cfg, portFlag), r)
}
