package async

import (
	"context"
	"time"
)

// Job is one quote file waiting to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
	Force       bool // process even if the same content was already recorded
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
