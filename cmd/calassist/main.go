package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/systematicmess/calendar-assistant/internal/cli"
)

func main() {
	// Ctrl-C cancels a pending login or chat turn.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
