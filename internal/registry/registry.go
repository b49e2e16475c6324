// Package registry tracks which widget instances currently exist on the
// host so that fan-out operations know who to update.
package registry

import (
	"sort"
	"sync"
)

// Registry lists the live widget instances.
type Registry interface {
	Active() []string
}

// Memory is a concurrency-safe in-process registry driven by the host's
// instance lifecycle callbacks.
type Memory struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

func (m *Memory) Add(instanceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[instanceID] = struct{}{}
}

func (m *Memory) Remove(instanceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, instanceID)
}

// Active returns the live instance ids in sorted order.
func (m *Memory) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
