// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. It is the development and
// test backend.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[collection][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.m[collection]))
	for _, rec := range s.m[collection] {
		if filter.Match(rec.Attrs) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection string, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.m[collection]
	if !ok {
		c = make(map[string]Record)
		s.m[collection] = c
	}
	cur, exists := c[rec.ID]
	switch {
	case rec.Version == 0 && exists:
		return Record{}, ErrAlreadyExists
	case rec.Version != 0 && !exists:
		return Record{}, ErrNotFound
	case rec.Version != 0 && cur.Version != rec.Version:
		return Record{}, ErrVersionConflict
	}
	stored := cloneRecord(rec)
	stored.Version = rec.Version + 1
	c[rec.ID] = stored
	return cloneRecord(stored), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m[collection], id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(r Record) Record {
	return Record{ID: r.ID, Version: r.Version, Attrs: copyAttrs(r.Attrs), Data: copyData(r.Data)}
}
