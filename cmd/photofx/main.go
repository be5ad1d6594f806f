// Package main is the entry point for the photofx CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"photofx/cmd/photofx/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
