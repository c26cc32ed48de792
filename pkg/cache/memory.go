package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local Store. Expired keys are dropped on read.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: map[string]memoryItem{}, now: time.Now}
}

func (m *Memory) Driver() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if ok && !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		ok = false
	}
	if ok && json.Unmarshal(item.data, dest) != nil {
		ok = false
	}

	record(m.Driver(), ok)
	return ok
}

// Set stores value; a ttl of zero never expires.
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
