package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/container"
	"github.com/serroba/url-shortener/internal/messaging"
	"go.uber.org/zap"
)

type config struct {
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
}

func (c config) options() *container.Options {
	return &container.Options{
		RedisAddr: c.RedisAddr,
		Broker:    container.BrokerRedis,
		LogFormat: c.LogFormat,
		LogLevel:  c.LogLevel,
		LogFile:   c.LogFile,
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[config]()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg.options())
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.BrokerPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
