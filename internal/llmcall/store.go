package llmcall

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a run has no recorded calls.
var ErrNotFound = errors.New("no recorded calls")

// QueryFilter specifies filters for listing calls.
type QueryFilter struct {
	RunID    string
	Document string
	Category string
	Success  *bool
	Limit    int
}

// RunSummary describes one extraction run in the history.
type RunSummary struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Document string    `json:"document" yaml:"document"`
	Started  time.Time `json:"started" yaml:"started"`
	Calls    int       `json:"calls" yaml:"calls"`
	Failed   int       `json:"failed" yaml:"failed"`
}

// Store persists call records.
type Store interface {
	Record(ctx context.Context, call *Call) error
	List(ctx context.Context, filter QueryFilter) ([]Call, error)
	// ByRun returns a run's calls in the order they were made.
	ByRun(ctx context.Context, runID string) ([]Call, error)
	// Runs returns the most recent runs first.
	Runs(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

// MemoryStore keeps calls in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	calls []Call
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Record(_ context.Context, call *Call) error {
	if call == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *call)
	return nil
}

func (m *MemoryStore) List(_ context.Context, filter QueryFilter) ([]Call, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Call
	for _, c := range m.calls {
		if !filter.matches(c) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ByRun(ctx context.Context, runID string) ([]Call, error) {
	calls, err := m.List(ctx, QueryFilter{RunID: runID})
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, ErrNotFound
	}
	return calls, nil
}

func (m *MemoryStore) Runs(_ context.Context, limit int) ([]RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index := make(map[string]int)
	var runs []RunSummary
	for _, c := range m.calls {
		i, ok := index[c.RunID]
		if !ok {
			i = len(runs)
			index[c.RunID] = i
			runs = append(runs, RunSummary{RunID: c.RunID, Document: c.Document, Started: c.Timestamp})
		}
		runs[i].Calls++
		if !c.Success {
			runs[i].Failed++
		}
		if c.Timestamp.Before(runs[i].Started) {
			runs[i].Started = c.Timestamp
		}
	}

	sort.SliceStable(runs, func(a, b int) bool { return runs[a].Started.After(runs[b].Started) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MemoryStore) Close() error { return nil }

func (f QueryFilter) matches(c Call) bool {
	if f.RunID != "" && c.RunID != f.RunID {
		return false
	}
	if f.Document != "" && c.Document != f.Document {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
