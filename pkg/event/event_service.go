package event

import (
	"context"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"github.com/gofiber/fiber/v2/log"
	"github.com/oklog/ulid/v2"
)

const defaultPageSize = 100

type (
	// Publisher appends an event to a scope and wakes its subscribers.
	Publisher interface {
		Publish(ctx context.Context, scope domain.EventScope, ev domain.NewEvent) (*entities.Event, error)
	}

	EventService interface {
		Publisher
		MarkRead(ctx context.Context, scope domain.EventScope, eventID string, readerID string) error
		GetEvents(ctx context.Context, scope domain.EventScope, readerID string) ([]domain.EventResponse, error)
		GetUnreadEvents(ctx context.Context, scope domain.EventScope, readerID string) ([]domain.EventResponse, error)
		Subscribe(ctx context.Context, scope domain.EventScope) (<-chan []*entities.Event, error)
	}

	eventService struct {
		eventRepository EventRepository
		notifier        Notifier
	}
)

func NewEventService(eventRepository EventRepository, notifier Notifier) EventService {
	return &eventService{
		eventRepository: eventRepository,
		notifier:        notifier,
	}
}

func (s *eventService) Publish(ctx context.Context, scope domain.EventScope, ev domain.NewEvent) (*entities.Event, error) {
	id := ulid.Make()
	priority := ev.Priority
	if priority == "" {
		priority = entities.PriorityNormal
	}

	event := &entities.Event{
		ID:            id.String(),
		Title:         ev.Title,
		Message:       ev.Message,
		Priority:      priority,
		Timestamp:     ulid.Time(id.Time()).UTC(),
		ReadBy:        []string{},
		Type:          ev.Type,
		ActionID:      ev.ActionID,
		ActionPayload: ev.ActionPayload,
	}

	if err := s.eventRepository.AppendEvent(ctx, scope, event); err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, scope.Channel()); err != nil {
		log.Warnw("event stored but subscribers not notified", "scope", scope.Key(), "event_id", event.ID, "error", err)
	}

	log.Debugw("event published", "scope", scope.Key(), "type", event.Type, "event_id", event.ID)
	return event, nil
}

func (s *eventService) MarkRead(ctx context.Context, scope domain.EventScope, eventID string, readerID string) error {
	if readerID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.eventRepository.MarkRead(ctx, scope, eventID, readerID); err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, scope.Channel()); err != nil {
		log.Warnw("read receipt stored but subscribers not notified", "scope", scope.Key(), "error", err)
	}
	return nil
}

func (s *eventService) GetEvents(ctx context.Context, scope domain.EventScope, readerID string) ([]domain.EventResponse, error) {
	events, err := s.eventRepository.GetEvents(ctx, scope, defaultPageSize)
	if err != nil {
		return nil, err
	}
	return ToResponses(events, readerID), nil
}

// GetUnreadEvents filters at read time; nothing is stored per reader besides read_by.
func (s *eventService) GetUnreadEvents(ctx context.Context, scope domain.EventScope, readerID string) ([]domain.EventResponse, error) {
	events, err := s.eventRepository.GetEvents(ctx, scope, defaultPageSize)
	if err != nil {
		return nil, err
	}

	unread := make([]*entities.Event, 0, len(events))
	for _, e := range events {
		if !e.IsReadBy(readerID) {
			unread = append(unread, e)
		}
	}
	return ToResponses(unread, readerID), nil
}

// Subscribe emits the scope's events, newest first, right away and again after
// every change notification. The channel is closed when ctx ends or the
// notification stream breaks; calling Subscribe again restarts it.
func (s *eventService) Subscribe(ctx context.Context, scope domain.EventScope) (<-chan []*entities.Event, error) {
	changes, err := s.notifier.Listen(ctx, scope.Channel())
	if err != nil {
		return nil, err
	}

	out := make(chan []*entities.Event, 1)
	go func() {
		defer close(out)

		emit := func() bool {
			events, err := s.eventRepository.GetEvents(ctx, scope, defaultPageSize)
			if err != nil {
				if ctx.Err() == nil {
					log.Errorw("reading events for subscriber", "scope", scope.Key(), "error", err)
				}
				return ctx.Err() == nil
			}
			select {
			case out <- events:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok || !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}

func ToResponse(e *entities.Event, readerID string) domain.EventResponse {
	readBy := e.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return domain.EventResponse{
		ID:            e.ID,
		Type:          e.Type,
		Title:         e.Title,
		Message:       e.Message,
		Priority:      e.Priority,
		Timestamp:     e.Timestamp,
		Read:          e.IsReadBy(readerID),
		ReadBy:        readBy,
		ActionID:      e.ActionID,
		ActionPayload: e.ActionPayload,
	}
}

func ToResponses(events []*entities.Event, readerID string) []domain.EventResponse {
	res := make([]domain.EventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, ToResponse(e, readerID))
	}
	return res
}
