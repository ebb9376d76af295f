package prefs

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Values are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

// Scope returns the KV of one visitor.
func (m *Memory) Scope(visitorID string) KV {
	return &memoryKV{m: m, visitor: visitorID}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memoryKV struct {
	m       *Memory
	visitor string
}

func (kv *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.m.mu.RLock()
	defer kv.m.mu.RUnlock()
	v, ok := kv.m.data[kv.visitor][key]
	return v, ok, nil
}

func (kv *memoryKV) Set(_ context.Context, key, value string) error {
	kv.m.mu.Lock()
	defer kv.m.mu.Unlock()
	scope, ok := kv.m.data[kv.visitor]
	if !ok {
		scope = make(map[string]string)
		kv.m.data[kv.visitor] = scope
	}
	scope[key] = value
	return nil
}
