// Package service defines the domain-level service boundaries.
package service

import (
	"context"
	"io"
)

// LoginProcess is a handle on one live interactive login CLI run. The broker
// owns exactly one per in-flight account identifier.
type LoginProcess interface {
	// Stdin is the process input stream; prompt answers and one-time codes
	// are written here.
	Stdin() io.Writer

	// Stdout is the process output stream, consumed as chunk events.
	Stdout() io.Reader

	// Stderr is the diagnostic stream. It is logged, never parsed for credentials.
	Stderr() io.Reader

	// Wait blocks until the process exits and returns its exit error, if any.
	Wait() error

	// Kill forcibly terminates the process.
	Kill() error
}

// LoginLauncher starts interactive login processes. Implementations run the
// real CLI; tests substitute a scripted fake.
type LoginLauncher interface {
	Launch(ctx context.Context) (LoginProcess, error)
}
