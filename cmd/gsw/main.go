package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gswitch.dev/cli/internal/interfaces/cli"
	"gswitch.dev/cli/internal/interfaces/di"
)

func main() {
	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C cancels cooperatively: an apply aborts cleanly unless
	// persistence already began, in which case it runs to completion.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		container.Logger.Info("shutdown requested, finishing safely")
		cancel()
	}()

	cli.ExecuteContext(ctx, container)
}
