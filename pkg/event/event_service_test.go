package event

import (
	"context"
	"testing"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (EventService, *testutil.Store) {
	store := testutil.NewStore()
	return NewEventService(store, store), store
}

func TestPublishAssignsIdentity(t *testing.T) {
	svc, store := newTestService()
	scope := domain.PantryScope("p1")

	ev, err := svc.Publish(context.Background(), scope, domain.NewEvent{
		Type:  entities.EventNewItem,
		Title: "Milk added",
	})
	require.NoError(t, err)

	assert.Len(t, ev.ID, 26)
	assert.Equal(t, entities.PriorityNormal, ev.Priority)
	assert.Empty(t, ev.ReadBy)
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Second)

	stored := store.EventsOf(scope)
	require.Len(t, stored, 1)
	assert.Equal(t, "PANTRY#p1", stored[0].PK)
	assert.Equal(t, "EVENT#"+ev.ID, stored[0].SK)
}

func TestMarkReadTwiceEqualsOnce(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	scope := domain.UserScope("u1")

	ev, err := svc.Publish(ctx, scope, domain.NewEvent{Type: entities.EventGeneral, Title: "hello"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, scope, ev.ID, "u1"))
	once := store.EventsOf(scope)[0].ReadBy

	require.NoError(t, svc.MarkRead(ctx, scope, ev.ID, "u1"))
	twice := store.EventsOf(scope)[0].ReadBy

	assert.Equal(t, []string{"u1"}, once)
	assert.Equal(t, once, twice)
}

func TestMarkReadUnknownEvent(t *testing.T) {
	svc, _ := newTestService()
	err := svc.MarkRead(context.Background(), domain.UserScope("u1"), "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestGetUnreadEvents(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	scope := domain.PantryScope("p1")

	first, err := svc.Publish(ctx, scope, domain.NewEvent{Type: entities.EventNewItem, Title: "Eggs"})
	require.NoError(t, err)
	second, err := svc.Publish(ctx, scope, domain.NewEvent{Type: entities.EventNewItem, Title: "Bread"})
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, scope, first.ID, "alice"))

	all, err := svc.GetEvents(ctx, scope, "alice")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.False(t, all[0].Read)
	assert.True(t, all[1].Read)

	unread, err := svc.GetUnreadEvents(ctx, scope, "alice")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	unreadBob, err := svc.GetUnreadEvents(ctx, scope, "bob")
	require.NoError(t, err)
	assert.Len(t, unreadBob, 2)
}

func TestSubscribe(t *testing.T) {
	svc, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	scope := domain.PantryScope("p1")

	_, err := svc.Publish(ctx, scope, domain.NewEvent{Type: entities.EventNewItem, Title: "Eggs"})
	require.NoError(t, err)

	stream, err := svc.Subscribe(ctx, scope)
	require.NoError(t, err)

	initial := receive(t, stream)
	require.Len(t, initial, 1)

	latest, err := svc.Publish(context.Background(), scope, domain.NewEvent{Type: entities.EventNewItem, Title: "Bread"})
	require.NoError(t, err)

	updated := receive(t, stream)
	require.Len(t, updated, 2)
	assert.Equal(t, latest.ID, updated[0].ID)

	cancel()
	select {
	case _, ok := <-stream:
		for ok {
			_, ok = <-stream
		}
	case <-time.After(time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func receive(t *testing.T, stream <-chan []*entities.Event) []*entities.Event {
	t.Helper()
	select {
	case events, ok := <-stream:
		require.True(t, ok, "stream closed")
		return events
	case <-time.After(time.Second):
		t.Fatal("no emission")
		return nil
	}
}
