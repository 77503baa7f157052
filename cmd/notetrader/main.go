package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/notetrader/cmd/notetrader/commands"
)

// main is the entry point for the notetrader CLI
// ⭐ Single CLI entry point: go run ./cmd/notetrader [command]
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
