package objectstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Memory keeps objects in process. Used for local runs and tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// PutErr, when set, fails every Put.
	PutErr error
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *Memory) Backend() Backend { return BackendMemory }

func (m *Memory) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return append([]byte(nil), b...), m.types[key], ok
}

func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type discard struct{}

// NewDiscard accepts writes without storing them (EVIDENCE_STORAGE=none).
func NewDiscard() Store { return discard{} }

func (discard) Backend() Backend { return BackendNone }
func (discard) Put(_ context.Context, _ string, body io.Reader, _ int64, _ string) error {
	_, err := io.Copy(io.Discard, body)
	return err
}
func (discard) Delete(context.Context, string) error { return nil }
