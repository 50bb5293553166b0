package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jessemcg/Dog-Ear/internal/api"
	"github.com/jessemcg/Dog-Ear/internal/config"
	"github.com/jessemcg/Dog-Ear/internal/pattern"
	"github.com/jessemcg/Dog-Ear/internal/pipeline"
	"github.com/jessemcg/Dog-Ear/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	groups, diags, err := pattern.Load(cfg.PatternDir)
	if err != nil {
		log.Error("pattern dir unreadable", "dir", cfg.PatternDir, "error", err)
		os.Exit(1)
	}
	for _, d := range diags {
		log.Warn("pattern diagnostic", "detail", d.Error())
	}
	if len(groups) == 0 {
		log.Error("no pattern groups loaded", "dir", cfg.PatternDir)
		os.Exit(1)
	}
	log.Info("patterns loaded", "groups", len(groups), "diagnostics", len(diags))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := store.New(cfg.DataDir)

	orch := pipeline.NewOrchestrator(cfg, groups, ws, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, diags, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting dog-ear", "port", cfg.Port, "data_dir", cfg.DataDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
