package store

import (
	"context"
	"sort"
	"sync"

	"artistnet/tagsim/internal/graph"
)

type simKeyed struct {
	p    graph.Partition
	a, b string
}

// Memory is a process-local Store. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	tags map[string][]string
	sims map[simKeyed]float64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		tags: make(map[string][]string),
		sims: make(map[simKeyed]float64),
	}
}

func (m *Memory) Artists(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tags))
	for a := range m.tags {
		names = append(names, a)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Tags(ctx context.Context, artist string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.tags[artist]...), nil
}

func (m *Memory) SaveTags(ctx context.Context, artist string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[artist] = append([]string(nil), tags...)
	return nil
}

func (m *Memory) PutSimilarities(ctx context.Context, p graph.Partition, sims []graph.Similarity) error {
	if !p.Valid() {
		return graph.ErrInvalidPartition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sims {
		a, b := canonicalPair(s.A, s.B)
		m.sims[simKeyed{p, a, b}] = s.Score
	}
	return nil
}

func (m *Memory) Similarity(ctx context.Context, p graph.Partition, a, b string) (float64, bool, error) {
	a, b = canonicalPair(a, b)
	m.mu.RLock()
	defer m.mu.RUnlock()
	score, ok := m.sims[simKeyed{p, a, b}]
	return score, ok, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = make(map[string][]string)
	m.sims = make(map[simKeyed]float64)
	return nil
}

func (m *Memory) Close() error { return nil }
