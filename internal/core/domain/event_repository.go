package domain

import "context"

// EventRepository is the abstraction for any kind of database intended to
// persist the append-only log of emitted events.
type EventRepository interface {
	// AddEvents appends the given events to the log, assigning them the next
	// sequence numbers in order. The assigned numbers are set to the given
	// events.
	AddEvents(ctx context.Context, events ...*Event) error
	// GetEvents returns the events with sequence number greater or equal than
	// fromSequence, ordered by sequence number and paginated.
	GetEvents(ctx context.Context, fromSequence uint64, page Page) ([]Event, error)
	// CountEvents returns the number of events in the log.
	CountEvents(ctx context.Context) (uint64, error)
}
