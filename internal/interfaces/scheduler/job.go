package scheduler

import "context"

// Job represents a unit of work that can be executed by the worker pool.
// Different job types can be implemented (sync jobs, annotation jobs,
// cleanup jobs).
type Job interface {
	// Execute runs the job with the given context.
	// Context should be respected for cancellation and timeouts.
	Execute(ctx context.Context) error

	// Subject returns the entity this job operates on (e.g. "item 42").
	// Used for logging and tracking.
	Subject() string

	// Description returns a human-readable description of the job.
	Description() string
}
