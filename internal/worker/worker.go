package worker

import (
	"context"
)

// Worker is a long-running background task managed by the Manager.
type Worker interface {
	// Start runs the worker loop until the context ends or Stop is
	// called.
	Start(ctx context.Context) error

	// Stop signals the worker loop to exit.
	Stop() error

	// Name identifies the worker in logs.
	Name() string
}
