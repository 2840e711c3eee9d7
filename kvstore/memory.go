package kvstore

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the soft memory cap: once the map grows past it, writes
// opportunistically drop expired entries. It bounds memory on a best-effort
// basis only; correctness never depends on eviction timing.
const sweepThreshold = 5000

type memEntry struct {
	value     string
	counter   int64
	expiresAt time.Time
}

// Memory is the process-local Store. State does not survive restart and is
// not shared across instances.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || m.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	m.entries[key] = memEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	if e, ok := m.entries[key]; ok && !m.now().After(e.expiresAt) {
		return false, nil
	}
	m.entries[key] = memEntry{value: value, expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	e, ok := m.entries[key]
	if !ok || m.now().After(e.expiresAt) {
		e = memEntry{expiresAt: m.now().Add(ttl)}
	}
	e.counter++
	m.entries[key] = e
	return e.counter, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// sweepLocked removes expired entries once the store has outgrown the soft
// cap. Callers must hold mu.
func (m *Memory) sweepLocked() {
	if len(m.entries) <= sweepThreshold {
		return
	}
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
