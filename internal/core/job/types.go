package job

import (
	"time"

	"mediadash/internal/platform/engine"
)

// Status for job lifecycle tracking. A record moves through at most
// queued -> running -> completed | failed; the terminal states are
// immutable.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Record is the canonical state of one submitted scrape job.
type Record struct {
	ID          string          `json:"job_id"`
	Platform    engine.Platform `json:"platform"`
	Params      engine.Params   `json:"params"`
	Status      Status          `json:"status"`
	Progress    int             `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}
