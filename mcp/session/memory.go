package session

import (
	"context"
	"sync"
)

// MemoryBackend is an in-memory Backend used in tests and for one-shot
// processes that should not touch the filesystem.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]Record
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string]Record{}}
}

func (b *MemoryBackend) Load(_ context.Context) (map[string]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Record, len(b.records))
	for k, v := range b.records {
		out[k] = v
	}
	return out, nil
}

func (b *MemoryBackend) Save(_ context.Context, records map[string]Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Record, len(records))
	for k, v := range records {
		out[k] = v
	}
	b.records = out
	return nil
}
