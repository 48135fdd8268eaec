package pantry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/utils"
	"Cooki-Backend/pkg/event"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

const qrCodeSize = 256

type (
	PantryService interface {
		// Authorize is the membership gate every pantry mutation goes through.
		Authorize(ctx context.Context, pantryID string, userID string) error
		CurrentPantry(ctx context.Context, session domain.Session) (*entities.Pantry, error)
		ResolveSession(ctx context.Context, userID string, headerPantryID string) (domain.Session, error)
		GetPantryByJoinToken(ctx context.Context, token string) (*entities.Pantry, error)

		CreatePantry(ctx context.Context, req domain.CreatePantryRequest, userID string) (domain.PantryResponse, error)
		GetPantry(ctx context.Context, pantryID string, userID string) (domain.PantryResponse, error)
		GetUserPantries(ctx context.Context, userID string) ([]domain.PantryResponse, error)
		UpdatePantry(ctx context.Context, pantryID string, req domain.UpdatePantryRequest, userID string) (domain.PantryResponse, error)
		RotateJoinToken(ctx context.Context, pantryID string, userID string) (domain.JoinTokenResponse, error)
		JoinTokenQRCode(ctx context.Context, pantryID string, userID string) ([]byte, error)
		AddMember(ctx context.Context, pantryID string, actorID string, memberID string) error
		RemoveMember(ctx context.Context, pantryID string, actorID string, memberID string) error
		SelectPantry(ctx context.Context, userID string, pantryID string) error
	}

	pantryService struct {
		pantryRepository PantryRepository
		publisher        event.Publisher
	}
)

func NewPantryService(pantryRepository PantryRepository, publisher event.Publisher) PantryService {
	return &pantryService{
		pantryRepository: pantryRepository,
		publisher:        publisher,
	}
}

// NewJoinToken returns an opaque token for joining a pantry.
func NewJoinToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *pantryService) Authorize(ctx context.Context, pantryID string, userID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if _, err := uuid.Parse(pantryID); err != nil {
		return domain.ErrPantryNotFound
	}

	if _, err := s.pantryRepository.GetPantryByID(ctx, pantryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPantryNotFound
		}
		return err
	}

	isMember, err := s.pantryRepository.IsMember(ctx, pantryID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrForbidden
	}
	return nil
}

func (s *pantryService) CurrentPantry(ctx context.Context, session domain.Session) (*entities.Pantry, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !session.HasPantry() {
		return nil, domain.ErrNoPantrySelected
	}

	pantryID := session.PantryID.String()
	if err := s.Authorize(ctx, pantryID, session.UserID.String()); err != nil {
		return nil, err
	}

	return s.pantryRepository.GetPantryByID(ctx, pantryID)
}

// ResolveSession picks the pantry for a request: the header value when sent,
// the user's stored current pantry otherwise. Membership is not checked here.
func (s *pantryService) ResolveSession(ctx context.Context, userID string, headerPantryID string) (domain.Session, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	session := domain.Session{UserID: userUUID}

	if headerPantryID != "" {
		pantryUUID, err := uuid.Parse(headerPantryID)
		if err != nil {
			return domain.Session{}, domain.ErrParseUUID
		}
		session.PantryID = pantryUUID
		return session, nil
	}

	current, err := s.pantryRepository.GetCurrentPantryID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrUserNotFound
		}
		return domain.Session{}, err
	}
	if current != nil {
		session.PantryID = *current
	}
	return session, nil
}

func (s *pantryService) GetPantryByJoinToken(ctx context.Context, token string) (*entities.Pantry, error) {
	if token == "" {
		return nil, domain.ErrPantryNotFound
	}
	pantry, err := s.pantryRepository.GetPantryByJoinToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPantryNotFound
		}
		return nil, err
	}
	return pantry, nil
}

func (s *pantryService) CreatePantry(ctx context.Context, req domain.CreatePantryRequest, userID string) (domain.PantryResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.PantryResponse{}, domain.ErrParseUUID
	}

	pantry := &entities.Pantry{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		OwnerID:   userUUID,
		JoinToken: NewJoinToken(),
	}
	if err := s.pantryRepository.CreatePantry(ctx, pantry); err != nil {
		return domain.PantryResponse{}, err
	}

	current, err := s.pantryRepository.GetCurrentPantryID(ctx, userID)
	if err == nil && current == nil {
		if err := s.pantryRepository.SetCurrentPantryID(ctx, userID, &pantry.ID); err != nil {
			log.Warnw("could not select new pantry", "user_id", userID, "pantry_id", pantry.ID, "error", err)
		}
	}

	return ToPantryResponse(pantry, 0, true), nil
}

func (s *pantryService) GetPantry(ctx context.Context, pantryID string, userID string) (domain.PantryResponse, error) {
	if err := s.Authorize(ctx, pantryID, userID); err != nil {
		return domain.PantryResponse{}, err
	}
	return s.loadResponse(ctx, pantryID)
}

func (s *pantryService) GetUserPantries(ctx context.Context, userID string) ([]domain.PantryResponse, error) {
	pantries, err := s.pantryRepository.GetPantriesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.PantryResponse, 0, len(pantries))
	for _, p := range pantries {
		count, err := s.pantryRepository.CountItems(ctx, p.ID.String())
		if err != nil {
			return nil, err
		}
		res = append(res, ToPantryResponse(p, int(count), true))
	}
	return res, nil
}

func (s *pantryService) UpdatePantry(ctx context.Context, pantryID string, req domain.UpdatePantryRequest, userID string) (domain.PantryResponse, error) {
	if err := s.Authorize(ctx, pantryID, userID); err != nil {
		return domain.PantryResponse{}, err
	}

	if err := s.pantryRepository.UpdatePantryName(ctx, pantryID, strings.TrimSpace(req.Name)); err != nil {
		return domain.PantryResponse{}, err
	}
	return s.loadResponse(ctx, pantryID)
}

func (s *pantryService) RotateJoinToken(ctx context.Context, pantryID string, userID string) (domain.JoinTokenResponse, error) {
	if err := s.Authorize(ctx, pantryID, userID); err != nil {
		return domain.JoinTokenResponse{}, err
	}

	token := NewJoinToken()
	if err := s.pantryRepository.UpdateJoinToken(ctx, pantryID, token); err != nil {
		return domain.JoinTokenResponse{}, err
	}

	log.Infow("join token rotated", "pantry_id", pantryID, "user_id", userID)
	return domain.JoinTokenResponse{
		PantryID:  pantryID,
		JoinToken: token,
		JoinURL:   JoinURL(token),
	}, nil
}

// JoinTokenQRCode renders the pantry's join link as a PNG.
func (s *pantryService) JoinTokenQRCode(ctx context.Context, pantryID string, userID string) ([]byte, error) {
	if err := s.Authorize(ctx, pantryID, userID); err != nil {
		return nil, err
	}

	pantry, err := s.pantryRepository.GetPantryByID(ctx, pantryID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(JoinURL(pantry.JoinToken), qrcode.Medium, qrCodeSize)
}

func (s *pantryService) AddMember(ctx context.Context, pantryID string, actorID string, memberID string) error {
	if err := s.Authorize(ctx, pantryID, actorID); err != nil {
		return err
	}
	if _, err := uuid.Parse(memberID); err != nil {
		return domain.ErrParseUUID
	}

	isMember, err := s.pantryRepository.IsMember(ctx, pantryID, memberID)
	if err != nil {
		return err
	}
	if isMember {
		return domain.ErrAlreadyMember
	}

	if err := s.pantryRepository.AddMember(ctx, pantryID, memberID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyMember
		}
		return err
	}

	current, err := s.pantryRepository.GetCurrentPantryID(ctx, memberID)
	if err == nil && current == nil {
		pid := uuid.MustParse(pantryID)
		_ = s.pantryRepository.SetCurrentPantryID(ctx, memberID, &pid)
	}

	s.publish(ctx, domain.PantryScope(pantryID), domain.NewEvent{
		Type:     entities.EventNewMember,
		Title:    "New member",
		Message:  "A new member joined the pantry",
		ActionID: memberID,
		ActionPayload: map[string]string{
			"pantry_id": pantryID,
			"user_id":   memberID,
		},
	})
	return nil
}

// RemoveMember lets a member leave (actorID == memberID) or remove another
// member. The last member cannot leave.
func (s *pantryService) RemoveMember(ctx context.Context, pantryID string, actorID string, memberID string) error {
	if err := s.Authorize(ctx, pantryID, actorID); err != nil {
		return err
	}

	isMember, err := s.pantryRepository.IsMember(ctx, pantryID, memberID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrUserNotFound
	}

	count, err := s.pantryRepository.CountMembers(ctx, pantryID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return domain.ErrLastMember
	}

	if err := s.pantryRepository.RemoveMember(ctx, pantryID, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	current, err := s.pantryRepository.GetCurrentPantryID(ctx, memberID)
	if err == nil && current != nil && current.String() == pantryID {
		if err := s.pantryRepository.SetCurrentPantryID(ctx, memberID, nil); err != nil {
			log.Warnw("could not clear current pantry", "user_id", memberID, "error", err)
		}
	}

	log.Infow("pantry member removed", "pantry_id", pantryID, "member_id", memberID, "by", actorID)
	return nil
}

func (s *pantryService) SelectPantry(ctx context.Context, userID string, pantryID string) error {
	if err := s.Authorize(ctx, pantryID, userID); err != nil {
		return err
	}
	pid := uuid.MustParse(pantryID)
	return s.pantryRepository.SetCurrentPantryID(ctx, userID, &pid)
}

func (s *pantryService) loadResponse(ctx context.Context, pantryID string) (domain.PantryResponse, error) {
	pantry, err := s.pantryRepository.GetPantryByID(ctx, pantryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PantryResponse{}, domain.ErrPantryNotFound
		}
		return domain.PantryResponse{}, err
	}

	count, err := s.pantryRepository.CountItems(ctx, pantryID)
	if err != nil {
		return domain.PantryResponse{}, err
	}
	return ToPantryResponse(pantry, int(count), true), nil
}

func (s *pantryService) publish(ctx context.Context, scope domain.EventScope, ev domain.NewEvent) {
	if _, err := s.publisher.Publish(ctx, scope, ev); err != nil {
		log.Errorw("publishing pantry event", "scope", scope.Key(), "type", ev.Type, "error", err)
	}
}

func JoinURL(token string) string {
	return fmt.Sprintf("%s/join/%s", strings.TrimRight(utils.GetConfig("APP_URL"), "/"), token)
}

func ToPantryResponse(p *entities.Pantry, itemCount int, withToken bool) domain.PantryResponse {
	members := make([]domain.PantryMemberResponse, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, domain.PantryMemberResponse{
			UserID:   m.UserID.String(),
			JoinedAt: m.JoinedAt,
		})
	}

	res := domain.PantryResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		OwnerID:   p.OwnerID.String(),
		Members:   members,
		ItemCount: itemCount,
		CreatedAt: p.CreatedAt,
	}
	if withToken {
		res.JoinToken = p.JoinToken
	}
	return res
}
