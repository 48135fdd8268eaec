package entities

import (
	"time"

	"github.com/google/uuid"
)

type Pantry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	OwnerID   uuid.UUID `gorm:"type:uuid" json:"owner_id"`
	JoinToken string    `gorm:"uniqueIndex;not null" json:"-"`

	Members []*PantryMember `gorm:"foreignKey:PantryID" json:"-"`
	Items   []*Item         `gorm:"foreignKey:PantryID" json:"-"`
	Timestamp
}

// PantryMember is one row per (pantry, user). It backs both the pantry's member
// set and the user's pantry list, so they cannot drift apart.
type PantryMember struct {
	PantryID uuid.UUID `gorm:"type:uuid;primaryKey" json:"pantry_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Pantry *Pantry `gorm:"foreignKey:PantryID" json:"-"`
	User   *User   `gorm:"foreignKey:UserID" json:"-"`
}

// MemberIDs returns the member user ids. Members must be preloaded.
func (p *Pantry) MemberIDs() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.UserID.String())
	}
	return ids
}

// HasMember reports whether userID is in the preloaded member set.
func (p *Pantry) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m.UserID.String() == userID {
			return true
		}
	}
	return false
}
