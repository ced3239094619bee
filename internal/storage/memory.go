package storage

import (
	"context"
	"sync"
)

// Memory 是进程内 KV，用于测试与临时运行。
// FailGet/FailSet 非 nil 时对应操作直接返回该错误。
type Memory struct {
	mu      sync.RWMutex
	data    map[string]string
	FailGet error
	FailSet error
}

// NewMemory 创建空的内存 KV。
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	m.data[key] = value
	return nil
}

// SetFailures 并发安全地设置注入的错误。
func (m *Memory) SetFailures(get, set error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailGet = get
	m.FailSet = set
}
