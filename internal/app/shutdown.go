package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Steap/liquipedia-scripts/internal/observability"
)

// GracefulShutdown returns a context that is cancelled on SIGINT or
// SIGTERM. Watch loops and long edits hang off this context.
func GracefulShutdown(logger *observability.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	return ctx, cancel
}
