package joinrequest

import (
	"context"
	"errors"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	JoinRequestRepository interface {
		CreateJoinRequest(ctx context.Context, req *entities.JoinRequest) error
		GetJoinRequestByID(ctx context.Context, id string) (*entities.JoinRequest, error)
		GetPendingJoinRequest(ctx context.Context, pantryID string, requesterID string) (*entities.JoinRequest, error)
		GetJoinRequestsByPantry(ctx context.Context, pantryID string, status string) ([]*entities.JoinRequest, error)
		// ApproveJoinRequest moves a pending request to approved and makes the
		// requester a member in the same transaction.
		ApproveJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error)
		RejectJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error)
	}

	joinRequestRepository struct {
		db *gorm.DB
	}
)

func NewJoinRequestRepository(db *gorm.DB) JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

func (r *joinRequestRepository) CreateJoinRequest(ctx context.Context, req *entities.JoinRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *joinRequestRepository) GetJoinRequestByID(ctx context.Context, id string) (*entities.JoinRequest, error) {
	var req entities.JoinRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *joinRequestRepository) GetPendingJoinRequest(ctx context.Context, pantryID string, requesterID string) (*entities.JoinRequest, error) {
	var req entities.JoinRequest
	if err := r.db.WithContext(ctx).
		Where("pantry_id = ? AND requester_id = ? AND status = ?", pantryID, requesterID, entities.JoinRequestPending).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *joinRequestRepository) GetJoinRequestsByPantry(ctx context.Context, pantryID string, status string) ([]*entities.JoinRequest, error) {
	var reqs []*entities.JoinRequest
	query := r.db.WithContext(ctx).Where("pantry_id = ?", pantryID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *joinRequestRepository) ApproveJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error) {
	var req *entities.JoinRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = respond(tx, id, responderID, entities.JoinRequestApproved, at)
		if err != nil {
			return err
		}

		member := &entities.PantryMember{PantryID: req.PantryID, UserID: req.RequesterID, JoinedAt: at}
		if err := addMember(tx, member).Error; err != nil {
			return err
		}

		return selectPantryIfNone(tx, req.RequesterID, req.PantryID).Error
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *joinRequestRepository) RejectJoinRequest(ctx context.Context, id string, responderID string, at time.Time) (*entities.JoinRequest, error) {
	var req *entities.JoinRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = respond(tx, id, responderID, entities.JoinRequestRejected, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// respond updates the request only while it is still pending, so concurrent
// responders cannot both succeed.
func respond(tx *gorm.DB, id string, responderID string, status string, at time.Time) (*entities.JoinRequest, error) {
	responder, err := uuid.Parse(responderID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	res := transition(tx, id, responder, status, at)
	if res.Error != nil {
		return nil, res.Error
	}

	var req entities.JoinRequest
	if err := tx.Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJoinRequestNotFound
		}
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrJoinRequestNotPending
	}
	return &req, nil
}

// transition moves a request out of pending. RowsAffected is 0 when another
// responder got there first.
func transition(tx *gorm.DB, id string, responder uuid.UUID, status string, at time.Time) *gorm.DB {
	return tx.Model(&entities.JoinRequest{}).
		Where("id = ? AND status = ?", id, entities.JoinRequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"responded_by": responder,
		})
}

// addMember is a no-op when the user is already a member.
func addMember(tx *gorm.DB, member *entities.PantryMember) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(member)
}

func selectPantryIfNone(tx *gorm.DB, userID uuid.UUID, pantryID uuid.UUID) *gorm.DB {
	return tx.Model(&entities.User{}).
		Where("id = ? AND current_pantry_id IS NULL", userID).
		Update("current_pantry_id", pantryID)
}
