package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler creates a context that is canceled on SIGINT or SIGTERM.
// Workers finish their in-flight request and the driver proceeds straight to
// the final summary; a second signal exits immediately.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived signal %s, finishing in-flight requests...\n", sig)
		cancel()

		<-sigChan
		fmt.Fprintln(os.Stderr, "Forced shutdown")
		os.Exit(1)
	}()

	return ctx, cancel
}
