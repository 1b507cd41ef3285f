package main

import (
	"os"
	"os/signal"
	"syscall"

	"meridian/internal/bootstrap"
	"meridian/pkg/logger"
)

func main() {
	container := bootstrap.NewContainer().MustInit()
	defer logger.Sync()

	if err := container.Start(); err != nil {
		container.Log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a termination signal or a fatal component
// failure cancels the container context, then shuts everything down.
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Infof("Received signal %s", sig)
	case <-c.Context.Done():
		c.Log.Warn("Context cancelled, shutting down")
	}

	c.Shutdown()
}
