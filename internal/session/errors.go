package session

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the engine is listening.
	ErrAlreadyRunning = errors.New("engine already running")
	// ErrNotRunning is returned by Submit when no consumer is active.
	ErrNotRunning = errors.New("engine not running")
)
