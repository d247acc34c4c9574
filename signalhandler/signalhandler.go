package signalhandler

import (
	"context"
	"os/signal"
	"runtime"
	"syscall"
)

// WithInterrupt returns a context that is cancelled on SIGINT or SIGTERM.
// Cancellation stops the pipeline from taking on new work; verdicts that are
// already decided stay intact and are still reported.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GetOptimalProcs returns the number of worker goroutines to use for the
// batch stages. Image decoding holds full-resolution pixel buffers in memory,
// so running one worker per core tends to thrash on large photos.
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
