package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/escrowd/internal/core/domain"
)

type eventInmemoryStore struct {
	events []domain.Event
	locker *sync.RWMutex
}

type EventRepositoryImpl struct {
	store *eventInmemoryStore
}

func NewEventRepositoryImpl(store *eventInmemoryStore) domain.EventRepository {
	return &EventRepositoryImpl{store}
}

func (r EventRepositoryImpl) AddEvents(
	ctx context.Context, events ...*domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}

	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	prevLen := len(r.store.events)
	for _, e := range events {
		e.Sequence = uint64(len(r.store.events))
		r.store.events = append(r.store.events, *e)
	}

	journal(ctx).OnRollback(func() {
		r.store.locker.Lock()
		defer r.store.locker.Unlock()

		r.store.events = r.store.events[:prevLen]
	})

	return nil
}

func (r EventRepositoryImpl) GetEvents(
	_ context.Context, fromSequence uint64, page domain.Page,
) ([]domain.Event, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	result := make([]domain.Event, 0)
	if fromSequence >= uint64(len(r.store.events)) {
		return result, nil
	}

	events := r.store.events[fromSequence:]
	startIndex := page.Offset()
	endIndex := startIndex + page.Size
	if startIndex >= len(events) {
		return result, nil
	}
	if endIndex > len(events) {
		endIndex = len(events)
	}

	return append(result, events[startIndex:endIndex]...), nil
}

func (r EventRepositoryImpl) CountEvents(_ context.Context) (uint64, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	return uint64(len(r.store.events)), nil
}
