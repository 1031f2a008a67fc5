package tasks

import (
	"context"
	"sync"
	"time"
)

const MaxLogsPerTask = 1000

// DefaultRunTimeout bounds a single task execution unless the manager
// is configured otherwise.
const DefaultRunTimeout = 5 * time.Minute

// Manager schedules registered background tasks on their intervals.
// Stop cancels the schedulers and any in-flight runs, then waits for
// them to drain.
type Manager struct {
	timeout time.Duration
	tasks   sync.Map

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(runTimeout time.Duration) *Manager {
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		timeout: runTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a task. A positive interval starts a scheduler for it;
// zero or negative means trigger-only.
func (m *Manager) Register(name string, interval time.Duration, fn TaskFunc) {
	task := &RunnableTask{
		Name:         name,
		Interval:     interval,
		Handler:      fn,
		timeout:      m.timeout,
		registeredAt: time.Now(),
	}
	m.tasks.Store(name, task)

	if interval > 0 {
		m.wg.Add(1)
		go m.scheduler(task)
	}
}

// Trigger starts a task out of schedule. The run happens in the
// background; concurrent triggers of a running task are skipped.
func (m *Manager) Trigger(name string) error {
	t, ok := m.tasks.Load(name)
	if !ok {
		return TaskNotFoundError{Name: name}
	}
	task := t.(*RunnableTask)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		task.Run(m.ctx)
	}()
	return nil
}

func (m *Manager) ListStatus() []TaskStatus {
	var list []TaskStatus
	m.tasks.Range(func(_, value any) bool {
		task := value.(*RunnableTask)
		list = append(list, task.Status())
		return true
	})
	return list
}

func (m *Manager) GetLogs(name string) ([]LogEntry, error) {
	t, ok := m.tasks.Load(name)
	if !ok {
		return nil, TaskNotFoundError{Name: name}
	}
	task := t.(*RunnableTask)
	return task.GetLogs(), nil
}

// Stop shuts the schedulers down and waits for running tasks to finish.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) scheduler(task *RunnableTask) {
	defer m.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			task.Run(m.ctx)
		}
	}
}
