package blob

import (
	"context"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory is an in-process store used by tests
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func key(container, path string) string {
	return container + "/" + path
}

func (m *Memory) Put(ctx context.Context, container, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key(container, path)] = memObject{data: cp, contentType: contentType}
	return "memory://" + key(container, path), nil
}

func (m *Memory) Get(ctx context.Context, container, path string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key(container, path)]
	if !ok {
		return nil, "", ErrNotFound
	}
	return obj.data, obj.contentType, nil
}

func (m *Memory) Delete(ctx context.Context, container, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(container, path)
	if _, ok := m.objects[k]; !ok {
		return ErrNotFound
	}
	delete(m.objects, k)
	return nil
}

// Len reports the number of stored objects
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
