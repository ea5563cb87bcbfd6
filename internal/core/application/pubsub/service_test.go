package pubsub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/application/pubsub"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

type mockPubSub struct {
	mock.Mock
	published []string
	lock      sync.Mutex
	// if set, Publish waits for it to be closed
	blocked chan struct{}
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) SubscribeWithID(id, topic, endpoint, secret string) (string, error) {
	args := m.Called(id, topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(topic, id string) error {
	args := m.Called(topic, id)
	return args.Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic string, message string) error {
	if m.blocked != nil {
		<-m.blocked
	}
	m.lock.Lock()
	m.published = append(m.published, topic)
	m.lock.Unlock()
	return nil
}

func (m *mockPubSub) Close() error {
	return nil
}

func (m *mockPubSub) publishedTopics() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]string{}, m.published...)
}

type subscription struct {
	id, topic, endpoint string
	secured             bool
}

func (s subscription) Topic() string    { return s.topic }
func (s subscription) Id() string       { return s.id }
func (s subscription) IsSecured() bool  { return s.secured }
func (s subscription) NotifyAt() string { return s.endpoint }

func TestWebhooks(t *testing.T) {
	ctx := context.Background()
	ps := &mockPubSub{}
	ps.On("Subscribe", "DEPOSITED", "http://localhost:9000", "secret").
		Return("hook-1", nil)
	ps.On("Unsubscribe", ports.UnspecifiedTopic, "hook-1").Return(nil)
	ps.On("ListSubscriptionsForTopic", "DEPOSITED").Return([]ports.Subscription{
		subscription{"hook-1", "DEPOSITED", "http://localhost:9000", true},
	})

	svc, err := pubsub.NewService(ps)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	id, err := svc.AddWebhook(ctx, "DEPOSITED", "http://localhost:9000", "secret")
	require.NoError(t, err)
	require.Equal(t, "hook-1", id)

	_, err = svc.AddWebhook(ctx, "TRADE_SETTLED", "http://localhost:9000", "")
	require.Error(t, err)

	hooks, err := svc.ListWebhooks(ctx, "DEPOSITED")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	require.Equal(t, pubsub.WebhookInfo{
		ID:        "hook-1",
		Event:     "DEPOSITED",
		Endpoint:  "http://localhost:9000",
		IsSecured: true,
	}, hooks[0])

	_, err = svc.ListWebhooks(ctx, "FOO")
	require.Error(t, err)

	err = svc.RemoveWebhook(ctx, "hook-1")
	require.NoError(t, err)
	ps.AssertExpectations(t)
}

func TestPublishEvents(t *testing.T) {
	ps := &mockPubSub{}
	svc, err := pubsub.NewService(ps)
	require.NoError(t, err)

	listenerID, events := svc.AddListener(4)
	_, other := svc.AddListener(1)

	svc.PublishEvents(
		domain.Event{Sequence: 0, Type: domain.EventDeposited},
		domain.Event{Sequence: 1, Type: domain.EventClaimed},
	)

	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			require.Equal(t, uint64(i), ev.Sequence)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}

	// The lagging listener got only the first event.
	require.Len(t, other, 1)

	require.Eventually(t, func() bool {
		return len(ps.publishedTopics()) == 2
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"DEPOSITED", "CLAIMED"}, ps.publishedTopics())

	svc.RemoveListener(listenerID)
	_, ok := <-events
	require.False(t, ok)

	svc.Close()
	svc.PublishEvents(domain.Event{Sequence: 2, Type: domain.EventRecovered})
	require.Len(t, ps.publishedTopics(), 2)
}

func TestPublishEventsWithStalledWebhooks(t *testing.T) {
	ps := &mockPubSub{blocked: make(chan struct{})}
	svc, err := pubsub.NewServiceWithQueueSize(ps, 2)
	require.NoError(t, err)

	_, events := svc.AddListener(10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			svc.PublishEvents(domain.Event{Sequence: uint64(i), Type: domain.EventDeposited})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on stalled webhook delivery")
	}
	require.Len(t, events, 10)

	close(ps.blocked)
	svc.Close()

	// At most one event being delivered plus the queued ones.
	published := ps.publishedTopics()
	require.NotEmpty(t, published)
	require.LessOrEqual(t, len(published), 3)
}
