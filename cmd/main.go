package main

import (
	"os"
	"os/signal"
	"syscall"

	"athena/internal/bootstrap"
	"athena/pkg/logger"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()
	defer logger.Sync()

	if err := container.Start(); err != nil {
		container.Log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a termination signal or a fatal internal
// error, then runs the coordinated shutdown sequence.
func waitForShutdown(container *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		container.Log.Infow("Received shutdown signal", "signal", sig)
	case <-container.Context.Done():
		container.Log.Warn("Internal shutdown triggered")
	}

	container.Shutdown()
}
