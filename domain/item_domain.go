package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

const (
	LocationFridge   = "fridge"
	LocationFreezer  = "freezer"
	LocationPantry   = "pantry"
	LocationCupboard = "cupboard"

	CategoryFruits     = "fruits"
	CategoryVegetables = "vegetables"
	CategoryDairy      = "dairy"
	CategoryMeat       = "meat"
	CategorySeafood    = "seafood"
	CategoryGrains     = "grains"
	CategoryBakery     = "bakery"
	CategoryCondiments = "condiments"
	CategoryBeverages  = "beverages"
	CategoryOther      = "other"

	ExpiryStatusSafe    = "Safe"
	ExpiryStatusWarning = "Warning"
	ExpiryStatusExpired = "Expired"
	ExpiryStatusUnknown = "Unknown"
)

var (
	Locations  = []string{LocationFridge, LocationFreezer, LocationPantry, LocationCupboard}
	Categories = []string{
		CategoryFruits, CategoryVegetables, CategoryDairy, CategoryMeat, CategorySeafood,
		CategoryGrains, CategoryBakery, CategoryCondiments, CategoryBeverages, CategoryOther,
	}
)

var (
	MessageSuccessAddItem         = "item added successfully"
	MessageSuccessUpdateItem      = "item updated successfully"
	MessageSuccessDeleteItem      = "item deleted successfully"
	MessageSuccessGetItems        = "items retrieved successfully"
	MessageSuccessUploadItemImage = "item image uploaded successfully"
	MessageSuccessGetPantryStats  = "pantry statistics retrieved successfully"

	MessageFailedAddItem         = "failed to add item"
	MessageFailedUpdateItem      = "failed to update item"
	MessageFailedDeleteItem      = "failed to delete item"
	MessageFailedGetItems        = "failed to retrieve items"
	MessageFailedUploadItemImage = "failed to upload item image"
	MessageFailedGetPantryStats  = "failed to retrieve pantry statistics"

	ErrItemNotFound       = errors.New("item not found")
	ErrInvalidExpiryDate  = errors.New("invalid expiry date")
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrInvalidLocation    = errors.New("invalid storage location")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidImageFormat = errors.New("invalid image format")
)

type (
	QuantityRequest struct {
		Value float64 `json:"value" validate:"min=0"`
		Unit  string  `json:"unit" validate:"required,oneof=g kg ml l piece cup tbsp tsp oz lb"`
	}

	AddItemRequest struct {
		Title      string          `json:"title" validate:"required"`
		Quantity   QuantityRequest `json:"quantity"`
		ExpiryDate string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
		Location   string          `json:"location" validate:"omitempty,oneof=fridge freezer pantry cupboard"`
		Category   string          `json:"category" validate:"omitempty,oneof=fruits vegetables dairy meat seafood grains bakery condiments beverages other"`
		Notes      string          `json:"notes" validate:"omitempty,max=1000"`
	}

	UpdateItemRequest struct {
		Title      string           `json:"title" validate:"omitempty"`
		Quantity   *QuantityRequest `json:"quantity" validate:"omitempty"`
		ExpiryDate string           `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
		Location   string           `json:"location" validate:"omitempty,oneof=fridge freezer pantry cupboard"`
		Category   string           `json:"category" validate:"omitempty,oneof=fruits vegetables dairy meat seafood grains bakery condiments beverages other"`
		Notes      *string          `json:"notes" validate:"omitempty,max=1000"`
	}

	UploadItemImageRequest struct {
		ItemID string                `json:"item_id" form:"item_id" validate:"required,uuid"`
		Image  *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	ItemFilter struct {
		Location string
		Category string
		Status   string
	}

	ItemResponse struct {
		ID           string     `json:"id"`
		PantryID     string     `json:"pantry_id"`
		Title        string     `json:"title"`
		Quantity     Quantity   `json:"quantity"`
		ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
		ExpiryStatus string     `json:"expiry_status"`
		AddedDate    time.Time  `json:"added_date"`
		Location     string     `json:"location"`
		Category     string     `json:"category"`
		ImageURL     *string    `json:"image_url,omitempty"`
		Notes        *string    `json:"notes,omitempty"`
		CreatedBy    string     `json:"created_by"`
		CreatedAt    time.Time  `json:"created_at"`
	}

	PantryStatsResponse struct {
		TotalItems   int            `json:"total_items"`
		SafeItems    int            `json:"safe_items"`
		WarningItems int            `json:"warning_items"`
		ExpiredItems int            `json:"expired_items"`
		NoExpiry     int            `json:"no_expiry_items"`
		ByLocation   map[string]int `json:"by_location"`
	}
)

// ExpiryWarningWindow is how close to expiry an item turns to Warning.
const ExpiryWarningWindow = 3 * 24 * time.Hour

// ExpiryStatusOf derives the expiry status at now. It is never stored.
func ExpiryStatusOf(expiry *time.Time, now time.Time) string {
	switch {
	case expiry == nil:
		return ExpiryStatusUnknown
	case expiry.Before(now):
		return ExpiryStatusExpired
	case expiry.Before(now.Add(ExpiryWarningWindow)):
		return ExpiryStatusWarning
	default:
		return ExpiryStatusSafe
	}
}
