package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/pkg/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessages struct {
	mu   sync.Mutex
	msgs []domain.StreamMessage
	err  error
}

func (s *sentMessages) send(msg domain.StreamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *sentMessages) all() []domain.StreamMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StreamMessage(nil), s.msgs...)
}

type pumpFixture struct {
	pump    *eventPump
	user    chan []*entities.Event
	pantry  chan []*entities.Event
	banners *event.BannerQueue
	sent    *sentMessages
}

func newPumpFixture() pumpFixture {
	f := pumpFixture{
		user:    make(chan []*entities.Event, 1),
		pantry:  make(chan []*entities.Event, 1),
		banners: event.NewBannerQueue("u-1", time.Millisecond),
		sent:    &sentMessages{},
	}
	f.pump = &eventPump{
		userID:       "u-1",
		userScope:    domain.UserScope("u-1"),
		pantryScope:  domain.PantryScope("p-1"),
		userEvents:   f.user,
		pantryEvents: f.pantry,
		banners:      f.banners,
		send:         f.sent.send,
	}
	return f
}

func (f pumpFixture) start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.pump.run(ctx)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event pump did not stop")
	}
}

func TestEventPumpForwardsEventsAndBanners(t *testing.T) {
	f := newPumpFixture()
	ctx, cancel := context.WithCancel(context.Background())
	done := f.start(ctx)

	f.pantry <- []*entities.Event{{ID: "01", Type: entities.EventNewItem, Title: "Milk added"}}

	require.Eventually(t, func() bool { return len(f.sent.all()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := f.sent.all()
	assert.Equal(t, domain.StreamKindEvents, msgs[0].Kind)
	assert.Equal(t, "PANTRY#p-1", msgs[0].Scope)
	require.Len(t, msgs[0].Events, 1)
	assert.Equal(t, domain.StreamKindBanner, msgs[1].Kind)
	require.NotNil(t, msgs[1].Banner)
	assert.Equal(t, "01", msgs[1].Banner.EventID)

	cancel()
	waitDone(t, done)
	f.banners.Close()
}

func TestEventPumpStopsWhenBannerQueueCloses(t *testing.T) {
	f := newPumpFixture()
	done := f.start(context.Background())

	f.banners.Close()
	waitDone(t, done)

	for _, msg := range f.sent.all() {
		assert.NotEqual(t, domain.StreamKindBanner, msg.Kind, "closed queue must not produce an empty banner")
	}
}

func TestEventPumpStopsWhenFeedCloses(t *testing.T) {
	f := newPumpFixture()
	defer f.banners.Close()
	done := f.start(context.Background())

	close(f.user)
	waitDone(t, done)
	assert.Empty(t, f.sent.all())
}

func TestEventPumpStopsOnSendFailure(t *testing.T) {
	f := newPumpFixture()
	defer f.banners.Close()
	f.sent.err = errors.New("connection reset")
	done := f.start(context.Background())

	f.user <- []*entities.Event{{ID: "01", Type: entities.EventGeneral}}
	waitDone(t, done)
	assert.Len(t, f.sent.all(), 1)
}
