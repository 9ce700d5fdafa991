package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/logger"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in internal/ledger.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
