package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vocabhub/internal/handler"
	"vocabhub/internal/hub"
	"vocabhub/internal/service"
	"vocabhub/internal/watcher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the vocabulary catalog and hierarchies over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		a.logger.Info("starting vocabhub", "summary", cfg.Summary())

		sseHub := hub.New(hub.WithLogger(a.logger))
		go sseHub.Run(ctx)

		eventChan := make(chan service.Event, 100)
		a.events.Subscribe(eventChan)
		go func() {
			for {
				select {
				case event := <-eventChan:
					sseHub.Broadcast(hub.Message{Event: string(event.Type), Data: event.Payload})
				case <-ctx.Done():
					return
				}
			}
		}()

		if a.files != nil && cfg.Files.Watch {
			w := watcher.New(a.files.Dir(), a.files.Matches, func(path string) {
				if err := a.vocabs.Reload(ctx, path); err != nil {
					a.logger.Error("failed to reload vocabulary", "path", path, "error", err)
				}
			}).WithLogger(a.logger)
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("vocabulary watcher stopped", "error", err)
				}
			}()
		}

		if cfg.Cache.Enabled() {
			go purgeLoop(ctx, a, cfg.Cache.TTL.Duration())
		}

		mux := http.NewServeMux()
		handler.NewVocabularyHandler(a.vocabs, a.hierarchies, cfg.LanguageTag(), a.logger).Register(mux)
		mux.Handle("GET /metrics", a.metrics.Handler())
		mux.Handle("GET /events", sseHub)

		server := &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     handler.Chain(mux, handler.Recover, handler.RequestID, handler.Logger),
			ReadTimeout: cfg.Server.ReadTimeout.Duration(),
			// event streams stay open, so only bound writes when configured
			WriteTimeout: cfg.Server.WriteTimeout.Duration(),
			IdleTimeout:  60 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			a.logger.Info("server listening", "addr", cfg.Server.Addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", "error", err)
		}
		a.logger.Info("server stopped")
		return nil
	},
}

// purgeLoop drops expired cache entries once per TTL
func purgeLoop(ctx context.Context, a *app, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := a.vocabs.PurgeCache(ctx, ttl); err != nil {
				a.logger.Warn("cache purge failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
