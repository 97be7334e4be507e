package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Manual signal handling so a second Ctrl+C forces exit instead of being
	// swallowed once the first signal has already triggered shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nForced exit")
		os.Exit(exitCancelled)
	}()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}
