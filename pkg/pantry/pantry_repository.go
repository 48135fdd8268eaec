package pantry

import (
	"context"

	"Cooki-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	PantryRepository interface {
		CreatePantry(ctx context.Context, pantry *entities.Pantry) error
		GetPantryByID(ctx context.Context, id string) (*entities.Pantry, error)
		GetPantryByJoinToken(ctx context.Context, token string) (*entities.Pantry, error)
		GetPantriesByUserID(ctx context.Context, userID string) ([]*entities.Pantry, error)
		UpdatePantryName(ctx context.Context, id string, name string) error
		UpdateJoinToken(ctx context.Context, id string, token string) error
		CountItems(ctx context.Context, pantryID string) (int64, error)

		IsMember(ctx context.Context, pantryID string, userID string) (bool, error)
		AddMember(ctx context.Context, pantryID string, userID string) error
		RemoveMember(ctx context.Context, pantryID string, userID string) error
		CountMembers(ctx context.Context, pantryID string) (int64, error)

		GetCurrentPantryID(ctx context.Context, userID string) (*uuid.UUID, error)
		SetCurrentPantryID(ctx context.Context, userID string, pantryID *uuid.UUID) error
	}

	pantryRepository struct {
		db *gorm.DB
	}
)

func NewPantryRepository(db *gorm.DB) PantryRepository {
	return &pantryRepository{db: db}
}

// CreatePantry inserts the pantry and its owner's membership together.
func (r *pantryRepository) CreatePantry(ctx context.Context, pantry *entities.Pantry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(pantry).Error; err != nil {
			return err
		}
		member := &entities.PantryMember{PantryID: pantry.ID, UserID: pantry.OwnerID}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		pantry.Members = []*entities.PantryMember{member}
		return nil
	})
}

func (r *pantryRepository) GetPantryByID(ctx context.Context, id string) (*entities.Pantry, error) {
	var pantry entities.Pantry
	if err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&pantry).Error; err != nil {
		return nil, err
	}
	return &pantry, nil
}

func (r *pantryRepository) GetPantryByJoinToken(ctx context.Context, token string) (*entities.Pantry, error) {
	var pantry entities.Pantry
	if err := r.db.WithContext(ctx).Preload("Members").Where("join_token = ?", token).First(&pantry).Error; err != nil {
		return nil, err
	}
	return &pantry, nil
}

func (r *pantryRepository) GetPantriesByUserID(ctx context.Context, userID string) ([]*entities.Pantry, error) {
	var pantries []*entities.Pantry
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN pantry_members pm ON pm.pantry_id = pantries.id").
		Where("pm.user_id = ?", userID).
		Order("pantries.created_at asc").
		Find(&pantries).Error; err != nil {
		return nil, err
	}
	return pantries, nil
}

func (r *pantryRepository) UpdatePantryName(ctx context.Context, id string, name string) error {
	return r.db.WithContext(ctx).Model(&entities.Pantry{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *pantryRepository) UpdateJoinToken(ctx context.Context, id string, token string) error {
	return r.db.WithContext(ctx).Model(&entities.Pantry{}).
		Where("id = ?", id).
		Update("join_token", token).Error
}

func (r *pantryRepository) CountItems(ctx context.Context, pantryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Item{}).
		Where("pantry_id = ?", pantryID).
		Count(&count).Error
	return count, err
}

func (r *pantryRepository) IsMember(ctx context.Context, pantryID string, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.PantryMember{}).
		Where("pantry_id = ? AND user_id = ?", pantryID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *pantryRepository) AddMember(ctx context.Context, pantryID string, userID string) error {
	pid, err := uuid.Parse(pantryID)
	if err != nil {
		return err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&entities.PantryMember{PantryID: pid, UserID: uid}).Error
}

func (r *pantryRepository) RemoveMember(ctx context.Context, pantryID string, userID string) error {
	res := r.db.WithContext(ctx).
		Where("pantry_id = ? AND user_id = ?", pantryID, userID).
		Delete(&entities.PantryMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pantryRepository) CountMembers(ctx context.Context, pantryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.PantryMember{}).
		Where("pantry_id = ?", pantryID).
		Count(&count).Error
	return count, err
}

func (r *pantryRepository) GetCurrentPantryID(ctx context.Context, userID string) (*uuid.UUID, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Select("id", "current_pantry_id").Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return user.CurrentPantryID, nil
}

func (r *pantryRepository) SetCurrentPantryID(ctx context.Context, userID string, pantryID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", userID).
		Update("current_pantry_id", pantryID).Error
}
