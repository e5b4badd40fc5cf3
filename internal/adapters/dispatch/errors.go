package dispatch

import "errors"

// Sentinel errors returned by dispatchers and sinks.
var (
	ErrNoSink   = errors.New("dispatch: no sink configured")
	ErrSinkFull = errors.New("dispatch: sink is full")
)
