package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/reelstats/internal/cli"
	"github.com/rewired-gh/reelstats/internal/logger"
)

var version = "dev"

func main() {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if err := cli.Run(ctx, version); err != nil {
		os.Exit(1)
	}
}
