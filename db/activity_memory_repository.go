package db

import (
	"context"
	"sort"
	"sync"

	"ticketsync/entity"
)

type ActivityMemoryRepository struct {
	lock    sync.Mutex
	entries map[string]entity.ActivityEntry
}

func NewActivityMemoryRepository() *ActivityMemoryRepository {
	return &ActivityMemoryRepository{entries: make(map[string]entity.ActivityEntry)}
}

func (r *ActivityMemoryRepository) Append(_ context.Context, entry entity.ActivityEntry) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.entries[entry.EventID]; ok {
		return nil
	}
	r.entries[entry.EventID] = entry

	return nil
}

func (r *ActivityMemoryRepository) Recent(_ context.Context, limit int) ([]entity.ActivityEntry, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entries := make([]entity.ActivityEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].EventID < entries[j].EventID
		}
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
