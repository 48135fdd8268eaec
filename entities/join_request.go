package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// JoinRequest is stored one row per request. The partial unique index keeps at
// most one pending request per (pantry, requester).
type JoinRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PantryID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_join_requests_pending,where:status = 'pending'" json:"pantry_id"`
	RequesterID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_join_requests_pending,where:status = 'pending'" json:"requester_id"`
	RequesterName string     `json:"requester_name"`
	Email         *string    `json:"email,omitempty"`
	Status        string     `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	RespondedBy   *uuid.UUID `gorm:"type:uuid" json:"responded_by,omitempty"`

	Pantry *Pantry `gorm:"foreignKey:PantryID" json:"-"`
}

func (r *JoinRequest) IsPending() bool {
	return r.Status == JoinRequestPending
}
