package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/emojiprofile/frontend/internal/router"
	"github.com/itchan-dev/emojiprofile/frontend/internal/setup"
	"github.com/itchan-dev/emojiprofile/shared/config"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Shutdown()

	server := &http.Server{
		Addr:         ":" + cfg.Public.Server.Port,
		Handler:      router.New(deps),
		ReadTimeout:  cfg.Public.Server.ReadTimeout,
		WriteTimeout: cfg.Public.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("starting frontend", "addr", server.Addr, "backend", cfg.Public.Backend.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}
