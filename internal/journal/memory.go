package journal

import (
	"context"
	"sync"

	"bankfsm.org/internal/ids"
)

// InMemory implements Journal with in-process concurrency safety.
type InMemory struct {
	mu      sync.RWMutex
	seq     uint64
	entries []Entry
}

// NewInMemory creates an empty journal.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (j *InMemory) Append(ctx context.Context, e Entry) (Entry, error) {
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.ID == "" {
		e.ID = ids.NewAt(e.At)
	}
	j.seq++
	e.Sequence = j.seq
	j.entries = append(j.entries, e)
	return e, nil
}

func (j *InMemory) List(ctx context.Context, limit int, afterSeq uint64) ([]Entry, uint64, error) {
	limit = NormalizeLimit(limit)
	j.mu.RLock()
	defer j.mu.RUnlock()

	res := []Entry{}
	last := afterSeq
	for _, e := range j.entries {
		if e.Sequence <= afterSeq {
			continue
		}
		res = append(res, e)
		last = e.Sequence
		if len(res) >= limit {
			break
		}
	}
	return res, last, nil
}
