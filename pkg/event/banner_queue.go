package event

import (
	"fmt"
	"sync"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
)

var bannerTypes = map[string]bool{
	entities.EventNewItem:             true,
	entities.EventJoinRequestCreated:  true,
	entities.EventJoinRequestAccepted: true,
	entities.EventJoinRequestDenied:   true,
	entities.EventNewMember:           true,
}

var decisionTypes = map[string]bool{
	entities.EventJoinRequestCreated:  true,
	entities.EventJoinRequestAccepted: true,
	entities.EventJoinRequestDenied:   true,
}

// BannerQueue turns newly observed unread events into in-app banners for one
// reader. One banner is out at a time; the next is released a settle delay
// after the current one is dismissed. Join-request events share one banner
// per request.
type BannerQueue struct {
	mu       sync.Mutex
	readerID string
	settle   time.Duration

	seen     map[string]struct{}
	keys     map[string]struct{}
	pending  []domain.Banner
	current  *domain.Banner
	settling bool
	closed   bool
	timer    *time.Timer

	out chan domain.Banner
}

func NewBannerQueue(readerID string, settle time.Duration) *BannerQueue {
	return &BannerQueue{
		readerID: readerID,
		settle:   settle,
		seen:     make(map[string]struct{}),
		keys:     make(map[string]struct{}),
		out:      make(chan domain.Banner, 1),
	}
}

// C delivers banners in arrival order.
func (q *BannerQueue) C() <-chan domain.Banner {
	return q.out
}

// Observe feeds a newest-first event list, as returned by Subscribe.
func (q *BannerQueue) Observe(events []*entities.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if _, ok := q.seen[e.ID]; ok {
			continue
		}
		q.seen[e.ID] = struct{}{}

		if !bannerTypes[e.Type] || e.IsReadBy(q.readerID) {
			continue
		}

		key := BannerKey(e)
		if _, ok := q.keys[key]; ok {
			continue
		}
		q.keys[key] = struct{}{}
		q.pending = append(q.pending, newBanner(key, e))
	}
	q.release()
}

// Dismiss clears the current banner if key matches it and schedules the next.
func (q *BannerQueue) Dismiss(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.current == nil || q.current.Key != key {
		return
	}

	q.current = nil
	q.settling = true
	q.timer = time.AfterFunc(q.settle, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.settling = false
		q.release()
	})
}

// Current returns the banner on screen, if any.
func (q *BannerQueue) Current() (domain.Banner, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return domain.Banner{}, false
	}
	return *q.current, true
}

func (q *BannerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *BannerQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
	}
	close(q.out)
}

// release must be called with mu held.
func (q *BannerQueue) release() {
	if q.closed || q.current != nil || q.settling || len(q.pending) == 0 {
		return
	}

	next := q.pending[0]
	select {
	case q.out <- next:
		q.pending = q.pending[1:]
		q.current = &next
	default:
	}
}

// BannerKey is the dedup key of an event's banner.
func BannerKey(e *entities.Event) string {
	if decisionTypes[e.Type] && e.ActionID != "" {
		return fmt.Sprintf(domain.JoinRequestBannerKeyTmpl, e.ActionID)
	}
	return "event:" + e.ID
}

func newBanner(key string, e *entities.Event) domain.Banner {
	b := domain.Banner{
		Key:      key,
		EventID:  e.ID,
		Type:     e.Type,
		Title:    e.Title,
		Message:  e.Message,
		ActionID: e.ActionID,
	}
	if e.ActionPayload != nil {
		b.PantryID = e.ActionPayload["pantry_id"]
		b.Requester = e.ActionPayload["requester_name"]
	}
	return b
}
