package item

import (
	"context"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"

	"gorm.io/gorm"
)

type (
	ItemRepository interface {
		AddItem(ctx context.Context, item *entities.Item) error
		GetItemByID(ctx context.Context, id string) (*entities.Item, error)
		UpdateItem(ctx context.Context, item *entities.Item) error
		DeleteItem(ctx context.Context, id string) error
		GetItems(ctx context.Context, pantryID string, filter domain.ItemFilter, now time.Time, page, limit int) ([]*entities.Item, int64, error)
		GetItemsByPantry(ctx context.Context, pantryID string) ([]*entities.Item, error)
	}

	itemRepository struct {
		db *gorm.DB
	}
)

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) AddItem(ctx context.Context, item *entities.Item) error {
	return r.db.WithContext(ctx).Omit("Pantry").Create(item).Error
}

func (r *itemRepository) GetItemByID(ctx context.Context, id string) (*entities.Item, error) {
	var item entities.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) UpdateItem(ctx context.Context, item *entities.Item) error {
	return r.db.WithContext(ctx).Omit("Pantry").Save(item).Error
}

func (r *itemRepository) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Item{}).Error
}

func (r *itemRepository) GetItems(ctx context.Context, pantryID string, filter domain.ItemFilter, now time.Time, page, limit int) ([]*entities.Item, int64, error) {
	var items []*entities.Item
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Model(&entities.Item{}).Where("pantry_id = ?", pantryID)

	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	warning := now.Add(domain.ExpiryWarningWindow)
	switch filter.Status {
	case domain.ExpiryStatusExpired:
		query = query.Where("expiry_date < ?", now)
	case domain.ExpiryStatusWarning:
		query = query.Where("expiry_date >= ? AND expiry_date < ?", now, warning)
	case domain.ExpiryStatusSafe:
		query = query.Where("expiry_date >= ?", warning)
	case domain.ExpiryStatusUnknown:
		query = query.Where("expiry_date IS NULL")
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("expiry_date asc nulls last").Order("added_date desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, count, nil
}

func (r *itemRepository) GetItemsByPantry(ctx context.Context, pantryID string) ([]*entities.Item, error) {
	var items []*entities.Item
	if err := r.db.WithContext(ctx).Where("pantry_id = ?", pantryID).Order("added_date asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
