package item

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/utils/storage"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/pantry"
	"Cooki-Backend/pkg/quantity"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxImageSide = 1024

type (
	ItemService interface {
		AddItem(ctx context.Context, session domain.Session, req domain.AddItemRequest) (domain.ItemResponse, error)
		// CreateItem persists a prepared item into its pantry through the
		// membership gate and announces it to the pantry.
		CreateItem(ctx context.Context, session domain.Session, item *entities.Item) (*entities.Item, error)
		UpdateItem(ctx context.Context, session domain.Session, id string, req domain.UpdateItemRequest) (domain.ItemResponse, error)
		DeleteItem(ctx context.Context, session domain.Session, id string) error
		GetItems(ctx context.Context, session domain.Session, filter domain.ItemFilter, page, limit int) ([]domain.ItemResponse, int64, error)
		GetItemByID(ctx context.Context, session domain.Session, id string) (domain.ItemResponse, error)
		UploadItemImage(ctx context.Context, session domain.Session, req domain.UploadItemImageRequest) (domain.ItemResponse, error)
		GetPantryStats(ctx context.Context, pantryID string, userID string) (domain.PantryStatsResponse, error)
	}

	itemService struct {
		itemRepository ItemRepository
		pantryService  pantry.PantryService
		publisher      event.Publisher
		s3             storage.AwsS3
		now            func() time.Time
	}
)

func NewItemService(itemRepository ItemRepository, pantryService pantry.PantryService, publisher event.Publisher, s3 storage.AwsS3) ItemService {
	return &itemService{
		itemRepository: itemRepository,
		pantryService:  pantryService,
		publisher:      publisher,
		s3:             s3,
		now:            time.Now,
	}
}

func (s *itemService) AddItem(ctx context.Context, session domain.Session, req domain.AddItemRequest) (domain.ItemResponse, error) {
	current, err := s.pantryService.CurrentPantry(ctx, session)
	if err != nil {
		return domain.ItemResponse{}, err
	}

	q, err := quantity.New(req.Quantity.Value, req.Quantity.Unit)
	if err != nil {
		return domain.ItemResponse{}, err
	}

	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		return domain.ItemResponse{}, err
	}

	item := &entities.Item{
		PantryID:      current.ID,
		Title:         strings.TrimSpace(req.Title),
		QuantityValue: q.Value,
		QuantityUnit:  string(q.Unit),
		ExpiryDate:    expiry,
		Location:      req.Location,
		Category:      req.Category,
		CreatedBy:     session.UserID,
	}
	if req.Notes != "" {
		notes := req.Notes
		item.Notes = &notes
	}

	created, err := s.CreateItem(ctx, session, item)
	if err != nil {
		return domain.ItemResponse{}, err
	}
	return s.toResponse(created), nil
}

func (s *itemService) CreateItem(ctx context.Context, session domain.Session, item *entities.Item) (*entities.Item, error) {
	if err := s.pantryService.Authorize(ctx, item.PantryID.String(), session.UserID.String()); err != nil {
		return nil, err
	}

	if item.QuantityValue < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := quantity.ParseUnit(item.QuantityUnit); err != nil {
		return nil, err
	}
	if item.Location == "" {
		item.Location = domain.LocationPantry
	}
	if item.Category == "" {
		item.Category = domain.CategoryOther
	}
	if !contains(domain.Locations, item.Location) {
		return nil, domain.ErrInvalidLocation
	}
	if !contains(domain.Categories, item.Category) {
		return nil, domain.ErrInvalidCategory
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.AddedDate.IsZero() {
		item.AddedDate = s.now()
	}
	item.CreatedBy = session.UserID

	if err := s.itemRepository.AddItem(ctx, item); err != nil {
		return nil, err
	}

	pantryID := item.PantryID.String()
	if _, err := s.publisher.Publish(ctx, domain.PantryScope(pantryID), domain.NewEvent{
		Type:     entities.EventNewItem,
		Title:    "New item",
		Message:  fmt.Sprintf("%s was added to the pantry", item.Title),
		ActionID: item.ID.String(),
		ActionPayload: map[string]string{
			"pantry_id":  pantryID,
			"item_id":    item.ID.String(),
			"created_by": session.UserID.String(),
		},
	}); err != nil {
		log.Errorw("publishing new item event", "pantry_id", pantryID, "item_id", item.ID, "error", err)
	}

	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, session domain.Session, id string, req domain.UpdateItemRequest) (domain.ItemResponse, error) {
	item, err := s.authorizedItem(ctx, session, id)
	if err != nil {
		return domain.ItemResponse{}, err
	}

	if req.Title != "" {
		item.Title = strings.TrimSpace(req.Title)
	}

	if req.Quantity != nil {
		q, err := quantity.New(req.Quantity.Value, req.Quantity.Unit)
		if err != nil {
			return domain.ItemResponse{}, err
		}
		item.QuantityValue = q.Value
		item.QuantityUnit = string(q.Unit)
	}

	if req.ExpiryDate != "" {
		expiry, err := parseExpiry(req.ExpiryDate)
		if err != nil {
			return domain.ItemResponse{}, err
		}
		item.ExpiryDate = expiry
	}

	if req.Location != "" {
		item.Location = req.Location
	}

	if req.Category != "" {
		item.Category = req.Category
	}

	if req.Notes != nil {
		if *req.Notes == "" {
			item.Notes = nil
		} else {
			notes := *req.Notes
			item.Notes = &notes
		}
	}

	if err := s.itemRepository.UpdateItem(ctx, item); err != nil {
		return domain.ItemResponse{}, err
	}
	return s.toResponse(item), nil
}

func (s *itemService) DeleteItem(ctx context.Context, session domain.Session, id string) error {
	item, err := s.authorizedItem(ctx, session, id)
	if err != nil {
		return err
	}

	if item.ImageURL != nil {
		objectKey := s.s3.GetObjectKeyFromLink(*item.ImageURL)
		if objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.itemRepository.DeleteItem(ctx, id)
}

func (s *itemService) GetItems(ctx context.Context, session domain.Session, filter domain.ItemFilter, page, limit int) ([]domain.ItemResponse, int64, error) {
	current, err := s.pantryService.CurrentPantry(ctx, session)
	if err != nil {
		return nil, 0, err
	}

	items, count, err := s.itemRepository.GetItems(ctx, current.ID.String(), filter, s.now(), page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.ItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, s.toResponse(item))
	}

	return response, count, nil
}

func (s *itemService) GetItemByID(ctx context.Context, session domain.Session, id string) (domain.ItemResponse, error) {
	item, err := s.authorizedItem(ctx, session, id)
	if err != nil {
		return domain.ItemResponse{}, err
	}
	return s.toResponse(item), nil
}

// UploadItemImage downsizes the image before storing it and replaces any
// previous image of the item.
func (s *itemService) UploadItemImage(ctx context.Context, session domain.Session, req domain.UploadItemImageRequest) (domain.ItemResponse, error) {
	item, err := s.authorizedItem(ctx, session, req.ItemID)
	if err != nil {
		return domain.ItemResponse{}, err
	}

	ext := strings.ToLower(filepath.Ext(req.Image.Filename))
	if !contains(storage.AllowImage, ext) {
		return domain.ItemResponse{}, domain.ErrInvalidImageFormat
	}

	file, err := req.Image.Open()
	if err != nil {
		return domain.ItemResponse{}, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return domain.ItemResponse{}, domain.ErrInvalidImageFormat
	}
	img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return domain.ItemResponse{}, err
	}

	objectKey := fmt.Sprintf("items/%s-%d.jpg", item.ID, s.now().Unix())
	if err := s.s3.PutObject(ctx, objectKey, buf, "image/jpeg"); err != nil {
		return domain.ItemResponse{}, err
	}

	if item.ImageURL != nil {
		if oldKey := s.s3.GetObjectKeyFromLink(*item.ImageURL); oldKey != "" {
			_ = s.s3.DeleteFile(oldKey)
		}
	}

	imageURL := s.s3.GetPublicLinkKey(objectKey)
	item.ImageURL = &imageURL
	if err := s.itemRepository.UpdateItem(ctx, item); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return domain.ItemResponse{}, err
	}
	return s.toResponse(item), nil
}

func (s *itemService) GetPantryStats(ctx context.Context, pantryID string, userID string) (domain.PantryStatsResponse, error) {
	if err := s.pantryService.Authorize(ctx, pantryID, userID); err != nil {
		return domain.PantryStatsResponse{}, err
	}

	items, err := s.itemRepository.GetItemsByPantry(ctx, pantryID)
	if err != nil {
		return domain.PantryStatsResponse{}, err
	}

	now := s.now()
	stats := domain.PantryStatsResponse{
		TotalItems: len(items),
		ByLocation: make(map[string]int),
	}
	for _, item := range items {
		switch domain.ExpiryStatusOf(item.ExpiryDate, now) {
		case domain.ExpiryStatusSafe:
			stats.SafeItems++
		case domain.ExpiryStatusWarning:
			stats.WarningItems++
		case domain.ExpiryStatusExpired:
			stats.ExpiredItems++
		default:
			stats.NoExpiry++
		}
		stats.ByLocation[item.Location]++
	}
	return stats, nil
}

// authorizedItem loads an item and checks the caller belongs to the item's pantry.
func (s *itemService) authorizedItem(ctx context.Context, session domain.Session, id string) (*entities.Item, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrItemNotFound
	}

	item, err := s.itemRepository.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}

	if err := s.pantryService.Authorize(ctx, item.PantryID.String(), session.UserID.String()); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) toResponse(item *entities.Item) domain.ItemResponse {
	return ToResponse(item, s.now())
}

func ToResponse(item *entities.Item, now time.Time) domain.ItemResponse {
	return domain.ItemResponse{
		ID:       item.ID.String(),
		PantryID: item.PantryID.String(),
		Title:    item.Title,
		Quantity: domain.Quantity{
			Value: item.QuantityValue,
			Unit:  domain.Unit(item.QuantityUnit),
		},
		ExpiryDate:   item.ExpiryDate,
		ExpiryStatus: domain.ExpiryStatusOf(item.ExpiryDate, now),
		AddedDate:    item.AddedDate,
		Location:     item.Location,
		Category:     item.Category,
		ImageURL:     item.ImageURL,
		Notes:        item.Notes,
		CreatedBy:    item.CreatedBy.String(),
		CreatedAt:    item.CreatedAt,
	}
}

func parseExpiry(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	expiry, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, domain.ErrInvalidExpiryDate
	}
	return &expiry, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
