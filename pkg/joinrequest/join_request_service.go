package joinrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/utils/mailing"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	JoinRequestService interface {
		CreateJoinRequest(ctx context.Context, token string, requester domain.Requester) (domain.JoinRequestResponse, error)
		ApproveJoinRequest(ctx context.Context, pantryID string, requestID string, responderID string) (domain.JoinRequestResponse, error)
		RejectJoinRequest(ctx context.Context, pantryID string, requestID string, responderID string) (domain.JoinRequestResponse, error)
		GetPendingJoinRequests(ctx context.Context, pantryID string, userID string) ([]domain.JoinRequestResponse, error)
		GetJoinRequests(ctx context.Context, pantryID string, userID string) ([]domain.JoinRequestResponse, error)
		// WatchPendingJoinRequests emits the pantry's pending requests now and
		// after every change in the pantry, until ctx ends.
		WatchPendingJoinRequests(ctx context.Context, pantryID string, userID string) (<-chan []domain.JoinRequestResponse, error)
	}

	joinRequestService struct {
		joinRequestRepository JoinRequestRepository
		pantryService         pantry.PantryService
		eventService          event.EventService
		notifier              event.Notifier
		mailer                mailing.Mailer
		now                   func() time.Time
	}
)

func NewJoinRequestService(
	joinRequestRepository JoinRequestRepository,
	pantryService pantry.PantryService,
	eventService event.EventService,
	notifier event.Notifier,
	mailer mailing.Mailer,
) JoinRequestService {
	return &joinRequestService{
		joinRequestRepository: joinRequestRepository,
		pantryService:         pantryService,
		eventService:          eventService,
		notifier:              notifier,
		mailer:                mailer,
		now:                   time.Now,
	}
}

func (s *joinRequestService) CreateJoinRequest(ctx context.Context, token string, requester domain.Requester) (domain.JoinRequestResponse, error) {
	requesterID, err := uuid.Parse(requester.UserID)
	if err != nil {
		return domain.JoinRequestResponse{}, domain.ErrUnauthenticated
	}

	target, err := s.pantryService.GetPantryByJoinToken(ctx, token)
	if err != nil {
		return domain.JoinRequestResponse{}, err
	}
	if target.HasMember(requester.UserID) {
		return domain.JoinRequestResponse{}, domain.ErrAlreadyMember
	}

	pantryID := target.ID.String()
	if _, err := s.joinRequestRepository.GetPendingJoinRequest(ctx, pantryID, requester.UserID); err == nil {
		return domain.JoinRequestResponse{}, domain.ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.JoinRequestResponse{}, err
	}

	req := &entities.JoinRequest{
		ID:            uuid.New(),
		PantryID:      target.ID,
		RequesterID:   requesterID,
		RequesterName: requester.Name,
		Email:         requester.Email,
		Status:        entities.JoinRequestPending,
		CreatedAt:     s.now(),
	}
	if err := s.joinRequestRepository.CreateJoinRequest(ctx, req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.JoinRequestResponse{}, domain.ErrDuplicateRequest
		}
		return domain.JoinRequestResponse{}, err
	}

	s.publish(ctx, domain.PantryScope(pantryID), domain.NewEvent{
		Type:     entities.EventJoinRequestCreated,
		Title:    "Join request",
		Message:  fmt.Sprintf("%s wants to join %s", displayName(req), target.Name),
		Priority: entities.PriorityHigh,
		ActionID: req.ID.String(),
		ActionPayload: map[string]string{
			"pantry_id":      pantryID,
			"requester_id":   requester.UserID,
			"requester_name": req.RequesterName,
		},
	})

	log.Infow("join request created", "pantry_id", pantryID, "request_id", req.ID, "requester_id", requester.UserID)
	return ToResponse(req), nil
}

func (s *joinRequestService) ApproveJoinRequest(ctx context.Context, pantryID string, requestID string, responderID string) (domain.JoinRequestResponse, error) {
	pantryName, err := s.check(ctx, pantryID, requestID, responderID)
	if err != nil {
		return domain.JoinRequestResponse{}, err
	}

	req, err := s.joinRequestRepository.ApproveJoinRequest(ctx, requestID, responderID, s.now())
	if err != nil {
		return domain.JoinRequestResponse{}, err
	}

	requesterID := req.RequesterID.String()
	s.publish(ctx, domain.UserScope(requesterID), domain.NewEvent{
		Type:     entities.EventJoinRequestAccepted,
		Title:    "Request approved",
		Message:  fmt.Sprintf("You are now a member of %s", pantryName),
		Priority: entities.PriorityHigh,
		ActionID: req.ID.String(),
		ActionPayload: map[string]string{
			"pantry_id":   pantryID,
			"pantry_name": pantryName,
		},
	})
	s.publish(ctx, domain.PantryScope(pantryID), domain.NewEvent{
		Type:     entities.EventNewMember,
		Title:    "New member",
		Message:  fmt.Sprintf("%s joined %s", displayName(req), pantryName),
		ActionID: requesterID,
		ActionPayload: map[string]string{
			"pantry_id":  pantryID,
			"user_id":    requesterID,
			"request_id": req.ID.String(),
		},
	})
	s.mail(req, pantryName, true)

	log.Infow("join request approved", "pantry_id", pantryID, "request_id", requestID, "by", responderID)
	return ToResponse(req), nil
}

func (s *joinRequestService) RejectJoinRequest(ctx context.Context, pantryID string, requestID string, responderID string) (domain.JoinRequestResponse, error) {
	pantryName, err := s.check(ctx, pantryID, requestID, responderID)
	if err != nil {
		return domain.JoinRequestResponse{}, err
	}

	req, err := s.joinRequestRepository.RejectJoinRequest(ctx, requestID, responderID, s.now())
	if err != nil {
		return domain.JoinRequestResponse{}, err
	}

	s.publish(ctx, domain.UserScope(req.RequesterID.String()), domain.NewEvent{
		Type:     entities.EventJoinRequestDenied,
		Title:    "Request declined",
		Message:  fmt.Sprintf("Your request to join %s was declined", pantryName),
		ActionID: req.ID.String(),
		ActionPayload: map[string]string{
			"pantry_id":   pantryID,
			"pantry_name": pantryName,
		},
	})
	// no pantry event on rejection; wake pending-list watchers directly
	if err := s.notifier.Notify(ctx, domain.PantryScope(pantryID).Channel()); err != nil {
		log.Warnw("join request watchers not notified", "pantry_id", pantryID, "error", err)
	}
	s.mail(req, pantryName, false)

	log.Infow("join request rejected", "pantry_id", pantryID, "request_id", requestID, "by", responderID)
	return ToResponse(req), nil
}

func (s *joinRequestService) GetPendingJoinRequests(ctx context.Context, pantryID string, userID string) ([]domain.JoinRequestResponse, error) {
	return s.list(ctx, pantryID, userID, entities.JoinRequestPending)
}

func (s *joinRequestService) GetJoinRequests(ctx context.Context, pantryID string, userID string) ([]domain.JoinRequestResponse, error) {
	return s.list(ctx, pantryID, userID, "")
}

func (s *joinRequestService) WatchPendingJoinRequests(ctx context.Context, pantryID string, userID string) (<-chan []domain.JoinRequestResponse, error) {
	if err := s.pantryService.Authorize(ctx, pantryID, userID); err != nil {
		return nil, err
	}

	changes, err := s.eventService.Subscribe(ctx, domain.PantryScope(pantryID))
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.JoinRequestResponse, 1)
	go func() {
		defer close(out)
		for range changes {
			pending, err := s.GetPendingJoinRequests(ctx, pantryID, userID)
			if err != nil {
				if ctx.Err() == nil {
					log.Errorw("reading pending join requests", "pantry_id", pantryID, "error", err)
				}
				return
			}
			select {
			case out <- pending:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *joinRequestService) list(ctx context.Context, pantryID string, userID string, status string) ([]domain.JoinRequestResponse, error) {
	if err := s.pantryService.Authorize(ctx, pantryID, userID); err != nil {
		return nil, err
	}

	reqs, err := s.joinRequestRepository.GetJoinRequestsByPantry(ctx, pantryID, status)
	if err != nil {
		return nil, err
	}

	res := make([]domain.JoinRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		res = append(res, ToResponse(req))
	}
	return res, nil
}

// check runs the membership gate for the responder, makes sure the request
// belongs to the pantry being answered for and returns the pantry name.
func (s *joinRequestService) check(ctx context.Context, pantryID string, requestID string, responderID string) (string, error) {
	if err := s.pantryService.Authorize(ctx, pantryID, responderID); err != nil {
		return "", err
	}

	if _, err := uuid.Parse(requestID); err != nil {
		return "", domain.ErrJoinRequestNotFound
	}

	req, err := s.joinRequestRepository.GetJoinRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrJoinRequestNotFound
		}
		return "", err
	}
	if req.PantryID.String() != pantryID {
		return "", domain.ErrJoinRequestNotFound
	}
	if !req.IsPending() {
		return "", domain.ErrJoinRequestNotPending
	}

	p, err := s.pantryService.GetPantry(ctx, pantryID, responderID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (s *joinRequestService) publish(ctx context.Context, scope domain.EventScope, ev domain.NewEvent) {
	if _, err := s.eventService.Publish(ctx, scope, ev); err != nil {
		log.Errorw("publishing join request event", "scope", scope.Key(), "type", ev.Type, "error", err)
	}
}

func (s *joinRequestService) mail(req *entities.JoinRequest, pantryName string, approved bool) {
	if req.Email == nil || *req.Email == "" {
		return
	}
	subject, body := mailing.JoinDecisionMail(displayName(req), pantryName, approved)
	if err := s.mailer.SendMail(*req.Email, subject, body); err != nil {
		log.Warnw("join decision mail not sent", "request_id", req.ID, "error", err)
	}
}

func displayName(req *entities.JoinRequest) string {
	if req.RequesterName == "" {
		return "Someone"
	}
	return req.RequesterName
}

func ToResponse(req *entities.JoinRequest) domain.JoinRequestResponse {
	res := domain.JoinRequestResponse{
		ID:            req.ID.String(),
		PantryID:      req.PantryID.String(),
		RequesterID:   req.RequesterID.String(),
		RequesterName: req.RequesterName,
		Email:         req.Email,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		RespondedAt:   req.RespondedAt,
	}
	if req.RespondedBy != nil {
		by := req.RespondedBy.String()
		res.RespondedBy = &by
	}
	return res
}
