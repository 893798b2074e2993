// Package crud implements list/get/create/update/delete over entity
// collections held in a storage.Repository.
package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kalambet/jobboard/internal/entity"
	"github.com/kalambet/jobboard/internal/storage"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrStorage wraps a failed collection write.
	ErrStorage = errors.New("storage failure")
)

// Binder serves the five record operations for one entity. Every call reads
// the collection fresh; mutations write the whole collection back.
type Binder struct {
	repo   storage.Repository
	entity entity.Entity

	// serializes load-modify-save so concurrent writers can't drop updates
	mu sync.Mutex
}

// NewBinder creates a Binder for e backed by repo.
func NewBinder(repo storage.Repository, e entity.Entity) *Binder {
	return &Binder{repo: repo, entity: e}
}

// Entity returns the entity this binder serves.
func (b *Binder) Entity() entity.Entity {
	return b.entity
}

// List returns every record in external shape, in stored order.
func (b *Binder) List(ctx context.Context) []storage.Record {
	records := b.repo.Load(ctx, b.entity.Collection)
	out := make([]storage.Record, len(records))
	for i, r := range records {
		out[i] = b.entity.ToExternal(r)
	}
	return out
}

// Get returns the first record with the given id in external shape.
func (b *Binder) Get(ctx context.Context, id int64) (storage.Record, error) {
	records := b.repo.Load(ctx, b.entity.Collection)
	if i := indexOf(records, id); i >= 0 {
		return b.entity.ToExternal(records[i]), nil
	}
	return nil, ErrNotFound
}

// Create stores fields as a new record with the next free id and returns the
// stored record in internal shape. Any id in fields is replaced.
func (b *Binder) Create(ctx context.Context, fields storage.Record) (storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := b.repo.Load(ctx, b.entity.Collection)

	rec := b.entity.ToInternal(fields)
	rec["id"] = NextID(records)

	records = append(records, rec)
	if err := b.repo.Save(ctx, b.entity.Collection, records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

// Update merges fields over the stored record with id and returns the stored
// result in internal shape. The record keeps its id and position.
func (b *Binder) Update(ctx context.Context, id int64, fields storage.Record) (storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := b.repo.Load(ctx, b.entity.Collection)
	i := indexOf(records, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	merged := records[i].Clone()
	for k, v := range fields {
		merged[k] = v
	}
	merged["id"] = id

	rec := b.entity.ToInternal(merged)
	records[i] = rec
	if err := b.repo.Save(ctx, b.entity.Collection, records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

// Delete removes every record with id.
func (b *Binder) Delete(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := b.repo.Load(ctx, b.entity.Collection)
	kept := make([]storage.Record, 0, len(records))
	for _, r := range records {
		if rid, ok := r.ID(); ok && rid == id {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == len(records) {
		return ErrNotFound
	}
	if err := b.repo.Save(ctx, b.entity.Collection, kept); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// NextID returns one more than the largest id in records, or 1 when there is
// none. Records without a usable id are ignored.
func NextID(records []storage.Record) int64 {
	var max int64
	for _, r := range records {
		if id, ok := r.ID(); ok && id > max {
			max = id
		}
	}
	return max + 1
}

func indexOf(records []storage.Record, id int64) int {
	for i, r := range records {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}
