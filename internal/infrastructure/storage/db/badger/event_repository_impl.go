package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type eventRepositoryImpl struct {
	store *badgerhold.Store
}

func NewEventRepositoryImpl(store *badgerhold.Store) domain.EventRepository {
	return eventRepositoryImpl{store}
}

func (r eventRepositoryImpl) AddEvents(
	ctx context.Context, events ...*domain.Event,
) error {
	if len(events) <= 0 {
		return nil
	}

	var first uint64
	if err := update(ctx, r.store, func(tx *badger.Txn) error {
		next, err := nextSequence(tx, r.store, eventsCounterKey, uint64(len(events)))
		if err != nil {
			return err
		}
		first = next

		for i, e := range events {
			record := *e
			record.Sequence = first + uint64(i)
			if err := r.store.TxInsert(tx, record.Sequence, newEvent(record)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for i, e := range events {
		e.Sequence = first + uint64(i)
	}
	return nil
}

func (r eventRepositoryImpl) GetEvents(
	ctx context.Context, fromSequence uint64, page domain.Page,
) ([]domain.Event, error) {
	query := badgerhold.Where("Sequence").Ge(fromSequence).
		SortBy("Sequence").Skip(page.Offset()).Limit(page.Size)

	var events []event
	if err := view(ctx, r.store, func(tx *badger.Txn) error {
		return r.store.TxFind(tx, &events, query)
	}); err != nil {
		return nil, err
	}

	result := make([]domain.Event, 0, len(events))
	for _, e := range events {
		result = append(result, e.toDomain())
	}
	return result, nil
}

func (r eventRepositoryImpl) CountEvents(ctx context.Context) (uint64, error) {
	var count uint64
	if err := view(ctx, r.store, func(tx *badger.Txn) error {
		var err error
		count, err = countSequence(tx, r.store, eventsCounterKey)
		return err
	}); err != nil {
		return 0, err
	}
	return count, nil
}
