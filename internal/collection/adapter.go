package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/ent0n29/coincollector/internal/reliability"
)

// Adapter is the read-modify-write layer over a Store. A missing collection
// is an empty one; every other store failure is returned as retryable.
type Adapter struct {
	store   Store
	onError func(op string, err error)
}

func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// SetErrorHook registers a callback invoked for every store failure.
func (a *Adapter) SetErrorHook(hook func(op string, err error)) {
	a.onError = hook
}

func (a *Adapter) Load(ctx context.Context, userID string) ([]Record, error) {
	records, err := a.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		a.report("load", err)
		return nil, fmt.Errorf("load collection: %w", reliability.Retryable(err))
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (a *Adapter) Save(ctx context.Context, userID string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	if err := a.store.Put(ctx, userID, records); err != nil {
		a.report("save", err)
		return fmt.Errorf("save collection: %w", reliability.Retryable(err))
	}
	return nil
}

// Add prepends rec to the user's collection and returns the new size.
func (a *Adapter) Add(ctx context.Context, userID string, rec Record) (int, error) {
	current, err := a.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	next := make([]Record, 0, len(current)+1)
	next = append(next, rec)
	next = append(next, current...)
	if err := a.Save(ctx, userID, next); err != nil {
		return 0, err
	}
	return len(next), nil
}

// Count returns how many stored records satisfy c.
func (a *Adapter) Count(ctx context.Context, userID string, c Criteria) (int, error) {
	current, err := a.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(Match(c, current)), nil
}

// Remove deletes every record matching c and returns how many were removed.
func (a *Adapter) Remove(ctx context.Context, userID string, c Criteria) (int, error) {
	current, err := a.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	next := Delete(c, current)
	if err := a.Save(ctx, userID, next); err != nil {
		return 0, err
	}
	return len(current) - len(next), nil
}

func (a *Adapter) Close() error {
	return a.store.Close()
}

func (a *Adapter) report(op string, err error) {
	if a.onError != nil {
		a.onError(op, err)
	}
}

// Mode names the underlying store backend.
func (a *Adapter) Mode() string {
	return StoreMode(a.store)
}
