package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo deduplicates identical store queries within one logical request. Concurrent
// callers of the same query share a single store call; successful results are kept
// for the lifetime of the memo, failures are not.
type Memo struct {
	group   singleflight.Group
	mutex   sync.Mutex
	results map[string]any
}

func NewMemo() *Memo {
	return &Memo{
		results: make(map[string]any),
	}
}

type memoKey struct{}

// WithMemo attaches the memo to ctx; aggregations using ctx will share it.
func WithMemo(ctx context.Context, memo *Memo) context.Context {
	return context.WithValue(ctx, memoKey{}, memo)
}

func memoFromContext(ctx context.Context) *Memo {
	memo, _ := ctx.Value(memoKey{}).(*Memo)
	return memo
}

func (m *Memo) do(key string, fn func() (any, error)) (any, error) {
	m.mutex.Lock()
	if v, ok := m.results[key]; ok {
		m.mutex.Unlock()
		return v, nil
	}
	m.mutex.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mutex.Lock()
		if v, ok := m.results[key]; ok {
			m.mutex.Unlock()
			return v, nil
		}
		m.mutex.Unlock()

		v, err := fn()
		if err != nil {
			return nil, err
		}
		m.mutex.Lock()
		m.results[key] = v
		m.mutex.Unlock()
		return v, nil
	})
	return v, err
}

// Len returns the number of cached results.
func (m *Memo) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.results)
}
