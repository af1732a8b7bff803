package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/fastygo/taskclient/internal/config"
	"github.com/fastygo/taskclient/internal/fakeapi"
	"github.com/fastygo/taskclient/internal/services/lifecycle"
	"github.com/fastygo/taskclient/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    "info",
		Encoding: cfg.Logger.Encoding,
		Name:     "mockapi",
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.SignalContext(context.Background())
	defer stop()

	api := fakeapi.New(fakeapi.Options{
		Secret:   cfg.MockAPI.Secret,
		TokenTTL: cfg.MockAPI.TokenTTL,
		Logger:   zapLogger,
	})
	server, err := api.ListenAndServe(cfg.MockAPI.Addr)
	if err != nil {
		zapLogger.Fatal("stand-in api failed to start", zap.Error(err))
	}
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})
	zapLogger.Info("stand-in api started", zap.String("address", cfg.MockAPI.Addr))

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
