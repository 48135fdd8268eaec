package entities

import (
	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name            string     `json:"name"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Password        string     `json:"-"`
	CurrentPantryID *uuid.UUID `gorm:"type:uuid" json:"current_pantry_id,omitempty"`

	Memberships []*PantryMember `gorm:"foreignKey:UserID" json:"-"`
	Timestamp
}

// PantryIDs lists the pantries the user belongs to. Memberships must be preloaded.
func (u *User) PantryIDs() []string {
	ids := make([]string, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		ids = append(ids, m.PantryID.String())
	}
	return ids
}
