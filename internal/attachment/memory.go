package attachment

import (
	"context"
	"slices"
	"sync"
)

type memObject struct {
	contentType string
	data        []byte
}

// Memory keeps attachments in process. Contents are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memObject
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memObject)}
}

func (m *Memory) Put(_ context.Context, name, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = memObject{contentType: contentType, data: slices.Clone(data)}

	return nil
}

func (m *Memory) Get(_ context.Context, name string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[name]
	if !ok {
		return nil, "", ErrNotFound
	}

	return slices.Clone(b.data), b.contentType, nil
}
