// Package pubsub delivers the committed vault events to the registered
// webhooks and to the in-process listeners, like the websocket stream.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

const (
	// DefaultQueueSize is the max number of events waiting for delivery to
	// the webhooks.
	DefaultQueueSize = 1024
	// DefaultListenerBuffer is the size of the channel of a listener.
	DefaultListenerBuffer = 64
)

// WebhookInfo describes a webhook subscription without disclosing its secret.
type WebhookInfo struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"is_secured"`
}

type Service struct {
	pubsub ports.PubSub

	queue     chan domain.Event
	listeners map[string]chan domain.Event
	closed    bool

	lock *sync.RWMutex
	wg   *sync.WaitGroup
}

func NewService(pubsub ports.PubSub) (*Service, error) {
	return NewServiceWithQueueSize(pubsub, DefaultQueueSize)
}

// NewServiceWithQueueSize is like NewService but with a custom webhook
// delivery queue size.
func NewServiceWithQueueSize(
	pubsub ports.PubSub, queueSize int,
) (*Service, error) {
	if pubsub == nil {
		return nil, fmt.Errorf("missing pubsub")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	svc := &Service{
		pubsub:    pubsub,
		queue:     make(chan domain.Event, queueSize),
		listeners: make(map[string]chan domain.Event),
		lock:      &sync.RWMutex{},
		wg:        &sync.WaitGroup{},
	}

	svc.wg.Add(1)
	go svc.deliver()
	return svc, nil
}

func (s *Service) PubSub() ports.PubSub {
	return s.pubsub
}

func (s *Service) AddWebhook(
	_ context.Context, event, endpoint, secret string,
) (string, error) {
	if !isValidTopic(event) {
		return "", fmt.Errorf("invalid webhook event type %q", event)
	}
	return s.pubsub.Subscribe(event, endpoint, secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(ports.UnspecifiedTopic, id)
}

// ListWebhooks returns the webhooks for the given event type, or all of them
// if unspecified.
func (s *Service) ListWebhooks(
	_ context.Context, event string,
) ([]WebhookInfo, error) {
	if event != ports.UnspecifiedTopic && !isValidTopic(event) {
		return nil, fmt.Errorf("invalid webhook event type %q", event)
	}

	subs := s.pubsub.ListSubscriptionsForTopic(event)
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, WebhookInfo{
			ID:        sub.Id(),
			Event:     sub.Topic(),
			Endpoint:  sub.NotifyAt(),
			IsSecured: sub.IsSecured(),
		})
	}
	return webhooks, nil
}

// PublishEvents hands the given events over to the listeners and queues them
// for delivery to the webhooks. It never blocks: events are dropped for a
// lagging listener or if the delivery queue is full. The persisted event log
// is the source for backfilling them.
func (s *Service) PublishEvents(events ...domain.Event) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.closed {
		log.Warnf("pubsub closed, dropping %d events", len(events))
		return
	}

	for _, ev := range events {
		for id, ch := range s.listeners {
			select {
			case ch <- ev:
			default:
				log.Warnf("listener %s is lagging, dropped event %d", id, ev.Sequence)
			}
		}
		select {
		case s.queue <- ev:
		default:
			log.Warnf(
				"webhook queue is full, dropped %s event %d", ev.Type, ev.Sequence,
			)
		}
	}
}

// AddListener registers a new in-process listener and returns its id along
// with the channel where events are sent.
func (s *Service) AddListener(buffer int) (string, <-chan domain.Event) {
	if buffer <= 0 {
		buffer = DefaultListenerBuffer
	}
	id := uuid.New().String()
	ch := make(chan domain.Event, buffer)

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		close(ch)
		return id, ch
	}
	s.listeners[id] = ch
	return id, ch
}

func (s *Service) RemoveListener(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if ch, ok := s.listeners[id]; ok {
		delete(s.listeners, id)
		close(ch)
	}
}

// Close stops accepting events, waits for the queued ones to be delivered and
// closes the underlying pubsub.
func (s *Service) Close() {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	for id, ch := range s.listeners {
		delete(s.listeners, id)
		close(ch)
	}
	s.lock.Unlock()

	s.wg.Wait()
	if err := s.pubsub.Close(); err != nil {
		log.WithError(err).Warn("failed to close pubsub")
	}
}

func (s *Service) deliver() {
	defer s.wg.Done()

	for ev := range s.queue {
		topic := string(ev.Type)
		if err := s.pubsub.Publish(topic, string(ev.Serialize())); err != nil {
			log.WithError(err).Warnf(
				"failed to deliver %s event %d to webhooks", topic, ev.Sequence,
			)
		}
	}
}

func isValidTopic(topic string) bool {
	return topic == ports.AnyTopic || domain.EventType(topic).IsValid()
}
