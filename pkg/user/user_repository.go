package user

import (
	"context"

	"Cooki-Backend/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	UserRepository interface {
		// RegisterUser stores the user together with their first pantry and
		// membership.
		RegisterUser(ctx context.Context, user *entities.User, pantry *entities.Pantry) error
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) RegisterUser(ctx context.Context, user *entities.User, pantry *entities.Pantry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}

		pantry.OwnerID = user.ID
		if err := tx.Omit(clause.Associations).Create(pantry).Error; err != nil {
			return err
		}
		member := &entities.PantryMember{PantryID: pantry.ID, UserID: user.ID}
		if err := tx.Omit(clause.Associations).Create(member).Error; err != nil {
			return err
		}

		user.CurrentPantryID = &pantry.ID
		return tx.Model(user).Update("current_pantry_id", pantry.ID).Error
	})
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Preload("Memberships").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Preload("Memberships").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
