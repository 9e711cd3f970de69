package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Server identity constants.
const (
	serverName    = "pdfsheet"
	serverVersion = "0.2.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
