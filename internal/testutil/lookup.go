// Package testutil provides deterministic identifier lookups for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/deeplink/internal/idresolve"
)

// StaticLookup answers identifier lookups from a fixed map.
//
// Unknown identifiers yield idresolve.ErrNotFound, which route transforms
// treat as "this candidate does not match".
//
// Thread-safety: StaticLookup is read-only after construction and safe for
// concurrent use; the call counter is guarded by a mutex.
type StaticLookup struct {
	mu      sync.Mutex
	answers map[int64]int64
	calls   []int64
}

// NewStaticLookup creates a lookup with the given answers.
//
//	placeUniverse := testutil.NewStaticLookup(map[int64]int64{1818: 13058})
func NewStaticLookup(answers map[int64]int64) *StaticLookup {
	if answers == nil {
		answers = map[int64]int64{}
	}
	return &StaticLookup{answers: answers}
}

// Lookup implements idresolve.Lookup.
func (l *StaticLookup) Lookup(ctx context.Context, id int64) (int64, error) {
	l.mu.Lock()
	l.calls = append(l.calls, id)
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if v, ok := l.answers[id]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("static lookup %d: %w", id, idresolve.ErrNotFound)
}

// Calls returns the identifiers looked up so far, in call order.
func (l *StaticLookup) Calls() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.calls...)
}

// FailingLookup returns a lookup that always fails with err.
func FailingLookup(err error) idresolve.Lookup {
	return func(context.Context, int64) (int64, error) {
		return 0, err
	}
}

// BlockingLookup returns a lookup that blocks until ctx is done.
func BlockingLookup() idresolve.Lookup {
	return func(ctx context.Context, _ int64) (int64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
}
