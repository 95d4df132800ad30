package main

import (
	"context"
	"os"
	"os/signal"
)

var signals = []os.Signal{
	os.Interrupt,
}

// interruptContext returns a context that is canceled when a SIGINT (Ctrl+C)
// is received. The returned stop function releases the signal handler and
// must be called once the context is no longer needed.
func interruptContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, signals...)

	go func() {
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(interruptChannel)
		cancel()
	}
}
