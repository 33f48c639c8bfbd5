package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"holdings-pricer/internal/bootstrap"
	"holdings-pricer/internal/config"
	infraconfig "holdings-pricer/internal/infrastructure/config"
	"holdings-pricer/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg := config.Load()
	port := cfg.Port
	if port == "" {
		port = infraconfig.DefaultHTTPPort
	}
	addr := ":" + port

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	// Refresh batches run in-process: the trigger worker drains POST
	// /prices/refresh, the ticker handles REFRESH_EVERY_MS.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); api.Worker.Start(ctx) }()
	go func() { defer wg.Done(); api.Ticker.Start(ctx) }()

	server := &http.Server{
		Addr:    addr,
		Handler: api.Handler,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("storage", cfg.Storage), zap.String("provider", cfg.Provider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	api.Server.CloseStreams()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	cancel()
	wg.Wait()
	logger.Info("server stopped")
}
