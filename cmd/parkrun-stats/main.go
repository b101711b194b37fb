package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/parkrun-stats/internal/cli"
)

func main() {
	// Cancel in-flight fetches and stop `serve` on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
