// Command gatewayd boots the gateway core and runs the background
// reaper until interrupted. The HTTP/SSE transport and SMTP ingestion
// attach to the same Gateway in the full deployment; this binary is the
// core's standalone entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	gateway "github.com/vaultsandbox/gateway-sub005"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := gateway.LoadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		logger.Fatal("gateway startup failed", zap.Error(err))
	}

	info := gw.ServerInfo()
	logger.Info("gateway ready",
		zap.Strings("domains", info.AllowedDomains),
		zap.String("algs", info.Algs.String()),
		zap.Duration("default_ttl", info.DefaultTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw.Run(ctx)

	logger.Info("shutting down", zap.Int("inboxes_dropped", gw.DeleteAllInboxes()))
	os.Exit(0)
}
