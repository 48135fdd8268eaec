package entities

import (
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PantryID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"pantry_id"`
	Title         string     `gorm:"not null" json:"title"`
	QuantityValue float64    `gorm:"type:numeric(12,3);not null;check:quantity_value >= 0" json:"quantity_value"`
	QuantityUnit  string     `gorm:"size:16;not null" json:"quantity_unit"`
	ExpiryDate    *time.Time `gorm:"index" json:"expiry_date,omitempty"`
	AddedDate     time.Time  `json:"added_date"`
	Location      string     `gorm:"size:16;not null" json:"location"`
	Category      string     `gorm:"size:16;not null" json:"category"`
	ImageURL      *string    `json:"image_url,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid" json:"created_by"`
	ReceiptScanID *uuid.UUID `gorm:"type:uuid" json:"receipt_scan_id,omitempty"`

	Pantry *Pantry `gorm:"foreignKey:PantryID" json:"-"`
	Timestamp
}
