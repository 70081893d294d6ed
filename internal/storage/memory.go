package storage

import (
	"context"
	"sync"
)

// Memory is a process-local Store used for tests and throwaway runs.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) Set(_ context.Context, namespace, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.blobs[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.blobs[namespace] = ns
	}
	b := make([]byte, len(blob))
	copy(b, blob)
	ns[key] = b
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs[namespace], key)
	return nil
}

func (m *Memory) Close() error { return nil }
