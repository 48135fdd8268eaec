package event

import (
	"testing"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settle = 20 * time.Millisecond

func ev(id, typ, actionID string, readBy ...string) *entities.Event {
	return &entities.Event{ID: id, Type: typ, Title: id, ActionID: actionID, ReadBy: readBy}
}

func nextBanner(t *testing.T, q *BannerQueue) domain.Banner {
	t.Helper()
	select {
	case b := <-q.C():
		return b
	case <-time.After(time.Second):
		t.Fatal("no banner released")
		return domain.Banner{}
	}
}

func assertNoBanner(t *testing.T, q *BannerQueue) {
	t.Helper()
	select {
	case b := <-q.C():
		t.Fatalf("unexpected banner %s", b.Key)
	case <-time.After(3 * settle):
	}
}

func TestBannerQueueOneAtATimeInOrder(t *testing.T) {
	q := NewBannerQueue("me", settle)
	defer q.Close()

	// newest first, as the store returns them
	q.Observe([]*entities.Event{
		ev("03", entities.EventNewMember, ""),
		ev("02", entities.EventNewItem, ""),
		ev("01", entities.EventNewItem, ""),
	})

	first := nextBanner(t, q)
	assert.Equal(t, "01", first.EventID)
	assertNoBanner(t, q)
	assert.Equal(t, 2, q.Pending())

	q.Dismiss(first.Key)
	second := nextBanner(t, q)
	assert.Equal(t, "02", second.EventID)

	q.Dismiss(second.Key)
	third := nextBanner(t, q)
	assert.Equal(t, "03", third.EventID)
}

func TestBannerQueueSkipsReadAndUnsupported(t *testing.T) {
	q := NewBannerQueue("me", settle)
	defer q.Close()

	q.Observe([]*entities.Event{
		ev("03", entities.EventReminder, ""),
		ev("02", entities.EventNewItem, "", "me"),
		ev("01", entities.EventGeneral, ""),
	})
	assertNoBanner(t, q)
	assert.Equal(t, 0, q.Pending())
}

func TestBannerQueueDeduplicatesJoinRequests(t *testing.T) {
	q := NewBannerQueue("me", settle)
	defer q.Close()

	q.Observe([]*entities.Event{ev("01", entities.EventJoinRequestCreated, "req-1")})
	b := nextBanner(t, q)
	assert.Equal(t, "join-request:req-1", b.Key)

	// a second event for the same request, and a re-observation of the first
	q.Observe([]*entities.Event{
		ev("02", entities.EventJoinRequestAccepted, "req-1"),
		ev("01", entities.EventJoinRequestCreated, "req-1"),
	})
	q.Dismiss(b.Key)
	assertNoBanner(t, q)
}

func TestBannerQueueSettleDelay(t *testing.T) {
	q := NewBannerQueue("me", 100*time.Millisecond)
	defer q.Close()

	q.Observe([]*entities.Event{
		ev("02", entities.EventNewItem, ""),
		ev("01", entities.EventNewItem, ""),
	})
	first := nextBanner(t, q)

	dismissed := time.Now()
	q.Dismiss(first.Key)
	_, showing := q.Current()
	assert.False(t, showing)

	second := nextBanner(t, q)
	assert.GreaterOrEqual(t, time.Since(dismissed), 100*time.Millisecond)
	assert.Equal(t, "02", second.EventID)

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, second.Key, current.Key)
}

func TestBannerQueueDismissWrongKey(t *testing.T) {
	q := NewBannerQueue("me", settle)
	defer q.Close()

	q.Observe([]*entities.Event{ev("02", entities.EventNewItem, ""), ev("01", entities.EventNewItem, "")})
	first := nextBanner(t, q)
	q.Dismiss("event:other")

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, first.Key, current.Key)
	assertNoBanner(t, q)
}

func TestBannerQueueCloseEndsChannel(t *testing.T) {
	q := NewBannerQueue("me", settle)
	q.Close()
	q.Close()

	_, open := <-q.C()
	assert.False(t, open)

	q.Observe([]*entities.Event{ev("01", entities.EventNewItem, "")})
	assert.Equal(t, 0, q.Pending())
}
