package notestore

import (
	"context"
	"sync"
)

// Memory keeps notes in a process-local map. Notes are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	notes map[string]string
	newID func() (string, error)
}

func NewMemory() *Memory {
	return &Memory{notes: make(map[string]string), newID: NewID}
}

func (m *Memory) Save(_ context.Context, note string) (string, error) {
	id, err := m.newID()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.notes[id] = note
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) Get(_ context.Context, id string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	note, ok := m.notes[id]
	return note, ok, nil
}

func (m *Memory) Close() error { return nil }
