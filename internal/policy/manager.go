package policy

import (
	"sync"
	"sync/atomic"
)

// Manager hands out the current Engine and swaps in new rule sets
// without blocking readers.
type Manager struct {
	current atomic.Pointer[Engine]
	mu      sync.Mutex
}

func NewManager(initialRules []Rule) (*Manager, error) {
	compiled, err := CompileRules(initialRules)
	if err != nil {
		return nil, err
	}
	m := &Manager{}
	m.current.Store(New(compiled))
	return m, nil
}

func (m *Manager) Engine() *Engine {
	return m.current.Load()
}

// Update compiles and installs a new rule set. The previous engine
// stays in place when compilation fails.
func (m *Manager) Update(rules []Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	compiled, err := CompileRules(rules)
	if err != nil {
		return err
	}
	m.current.Store(New(compiled))
	return nil
}
