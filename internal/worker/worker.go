package worker

import (
	"context"
)

// Worker defines the interface for the long-running loops of the pipeline binaries
type Worker interface {
	// Start begins the worker's main loop
	// This is a blocking call that runs until the context is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop gracefully stops the worker
	// The current tick runs to completion; loops that process items check StopRequested between items
	Stop(ctx context.Context) error

	// Name returns the worker's name for logging and identification
	Name() string
}

type stopSignalKey struct{}

// withStopSignal attaches the stop channel of a worker to ctx
func withStopSignal(ctx context.Context, stop <-chan struct{}) context.Context {
	return context.WithValue(ctx, stopSignalKey{}, stop)
}

// StopRequested reports whether the worker running ctx has been asked to stop
func StopRequested(ctx context.Context) bool {
	stop, ok := ctx.Value(stopSignalKey{}).(<-chan struct{})
	if !ok {
		return false
	}
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
