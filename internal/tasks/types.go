package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/gmarkoss/tessera/internal/logging"
)

// TaskFunc is the unit of work. The context carries the per-run
// timeout; the logger captures output for the admin surface.
type TaskFunc func(ctx context.Context, logger logging.InternalLogger) error

type TaskStatus struct {
	Name       string    `json:"name,omitempty"`
	Running    bool      `json:"running,omitempty"`
	LastRun    time.Time `json:"last_run"`
	LastResult string    `json:"last_result,omitempty"`
	NextRun    time.Time `json:"next_run"`
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
}

type TaskNotFoundError struct {
	Name string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task '%s' not found", e.Name)
}
