package handlers

import (
	"context"
	"sync"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/joinrequest"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type (
	StreamHandler interface {
		RequireUpgrade(c *fiber.Ctx) error
		Events(conn *websocket.Conn)
		PendingJoinRequests(conn *websocket.Conn)
	}

	streamHandler struct {
		eventService       event.EventService
		pantryService      pantry.PantryService
		joinRequestService joinrequest.JoinRequestService
		bannerSettle       time.Duration
	}
)

func NewStreamHandler(
	eventService event.EventService,
	pantryService pantry.PantryService,
	joinRequestService joinrequest.JoinRequestService,
	bannerSettle time.Duration,
) StreamHandler {
	return &streamHandler{
		eventService:       eventService,
		pantryService:      pantryService,
		joinRequestService: joinRequestService,
		bannerSettle:       bannerSettle,
	}
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func (h *streamHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return presenters.ErrorResponse(c, fiber.StatusUpgradeRequired, domain.MessageUpgradeRequired, nil)
	}
	return c.Next()
}

// connWriter serializes writes; websocket connections allow one writer at a time.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) send(msg domain.StreamMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(msg)
}

// Events streams the caller's user events and the events of their current
// pantry, plus banners for what arrives unread. Clients send StreamCommand
// messages to dismiss banners and mark events read.
func (h *streamHandler) Events(conn *websocket.Conn) {
	defer conn.Close()

	session, _ := conn.Locals(middleware.LocalSession).(domain.Session)
	userID := session.UserID.String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userScope := domain.UserScope(userID)
	userEvents, err := h.eventService.Subscribe(ctx, userScope)
	if err != nil {
		log.Errorw("subscribing to user events", "user_id", userID, "error", err)
		return
	}

	var pantryScope domain.EventScope
	var pantryEvents <-chan []*entities.Event
	if session.HasPantry() {
		pantryID := session.PantryID.String()
		if err := h.pantryService.Authorize(ctx, pantryID, userID); err == nil {
			pantryScope = domain.PantryScope(pantryID)
			if pantryEvents, err = h.eventService.Subscribe(ctx, pantryScope); err != nil {
				log.Errorw("subscribing to pantry events", "pantry_id", pantryID, "error", err)
				return
			}
		}
	}

	banners := event.NewBannerQueue(userID, h.bannerSettle)
	defer banners.Close()

	w := &connWriter{conn: conn}
	pump := &eventPump{
		userID:       userID,
		userScope:    userScope,
		pantryScope:  pantryScope,
		userEvents:   userEvents,
		pantryEvents: pantryEvents,
		banners:      banners,
		send:         w.send,
	}

	// The connection is recycled once the handler returns, so wait for the
	// writer first. banners closes after that.
	done := make(chan struct{})
	go func() {
		defer close(done)
		pump.run(ctx)
		// unblocks ReadJSON below
		_ = conn.Close()
	}()
	defer func() {
		cancel()
		_ = conn.Close()
		<-done
	}()

	for {
		var cmd domain.StreamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugw("event stream closed", "user_id", userID, "error", err)
			}
			return
		}

		switch cmd.Action {
		case domain.StreamActionDismiss:
			banners.Dismiss(cmd.Key)
		case domain.StreamActionRead:
			scope := userScope
			if cmd.Scope == pantryScope.Key() && pantryEvents != nil {
				scope = pantryScope
			}
			if err := h.eventService.MarkRead(ctx, scope, cmd.EventID, userID); err != nil {
				log.Warnw("marking event read from stream", "user_id", userID, "event_id", cmd.EventID, "error", err)
			}
		}
	}
}

// PendingJoinRequests streams the live pending join requests of a pantry.
func (h *streamHandler) PendingJoinRequests(conn *websocket.Conn) {
	defer conn.Close()

	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	pantryID := conn.Params("id")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := h.joinRequestService.WatchPendingJoinRequests(ctx, pantryID, userID)
	if err != nil {
		_ = conn.WriteJSON(presenters.Response{Status: false, Message: domain.MessageFailedOpenStream, Error: err.Error()})
		return
	}

	done := make(chan struct{})
	go func() {
		// drain client frames so close messages are noticed
		defer close(done)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		cancel()
		_ = conn.Close()
		<-done
	}()

	w := &connWriter{conn: conn}
	for pending := range updates {
		if err := w.send(domain.StreamMessage{Kind: domain.StreamKindPending, Scope: domain.PantryScope(pantryID).Key(), Pending: pending}); err != nil {
			return
		}
	}
}

// eventPump forwards one session's event feeds and banners to the client.
type eventPump struct {
	userID       string
	userScope    domain.EventScope
	pantryScope  domain.EventScope
	userEvents   <-chan []*entities.Event
	pantryEvents <-chan []*entities.Event
	banners      *event.BannerQueue
	send         func(domain.StreamMessage) error
}

// run returns when ctx ends, a feed or the banner queue closes, or a send fails.
func (p *eventPump) run(ctx context.Context) {
	for {
		var (
			evs   []*entities.Event
			scope domain.EventScope
			ok    bool
		)
		select {
		case <-ctx.Done():
			return
		case evs, ok = <-p.userEvents:
			if !ok {
				return
			}
			scope = p.userScope
		case evs, ok = <-p.pantryEvents:
			if !ok {
				return
			}
			scope = p.pantryScope
		case b, open := <-p.banners.C():
			if !open {
				return
			}
			if err := p.send(domain.StreamMessage{Kind: domain.StreamKindBanner, Banner: &b}); err != nil {
				return
			}
			continue
		}

		p.banners.Observe(evs)
		msg := domain.StreamMessage{
			Kind:   domain.StreamKindEvents,
			Scope:  scope.Key(),
			Events: event.ToResponses(evs, p.userID),
		}
		if err := p.send(msg); err != nil {
			return
		}
	}
}
