package tasks

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gmarkoss/tessera/internal/logging"
)

var _ logging.InternalLogger = (*TaskStoreLogger)(nil)

// TaskStoreLogger records task output on the task itself so the last
// run's logs can be inspected over the admin surface.
type TaskStoreLogger struct {
	Task *RunnableTask
}

func NewTaskStoreLogger(task *RunnableTask) *TaskStoreLogger {
	return &TaskStoreLogger{
		Task: task,
	}
}

func (t *TaskStoreLogger) Info(format string, args ...any) {
	t.Task.AppendLog("info", fmt.Sprintf(format, args...))
}

func (t *TaskStoreLogger) Warn(format string, args ...any) {
	t.Task.AppendLog("warn", fmt.Sprintf(format, args...))
}

func (t *TaskStoreLogger) Error(format string, args ...any) {
	t.Task.AppendLog("error", fmt.Sprintf(format, args...))
}

// NewCompositeLogger logs to both zerolog and the task store.
func NewCompositeLogger(task *RunnableTask, zlog zerolog.Logger) logging.MultiLogger {
	return logging.NewMultiLogger(
		logging.NewZLogger(zlog),
		NewTaskStoreLogger(task),
	)
}
