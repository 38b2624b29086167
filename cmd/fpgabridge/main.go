package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := executeWithContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fpgabridge:", err)
		stop()
		os.Exit(1)
	}
}
