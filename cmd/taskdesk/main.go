// Package main is the entry point for the taskdesk CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nhle/taskdesk/internal/cli"
)

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cli.Run(ctx, os.Args[1:], &cli.Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()
	os.Exit(code)
}
