package domain

import "time"

var (
	MessageSuccessCreatePantry    = "pantry created successfully"
	MessageSuccessGetPantry       = "pantry retrieved successfully"
	MessageSuccessGetPantries     = "pantries retrieved successfully"
	MessageSuccessUpdatePantry    = "pantry updated successfully"
	MessageSuccessRotateJoinToken = "join token rotated successfully"
	MessageSuccessAddMember       = "member added successfully"
	MessageSuccessRemoveMember    = "member removed successfully"
	MessageSuccessSelectPantry    = "current pantry selected successfully"
	MessageFailedCreatePantry     = "failed to create pantry"
	MessageFailedGetPantry        = "failed to retrieve pantry"
	MessageFailedGetPantries      = "failed to retrieve pantries"
	MessageFailedUpdatePantry     = "failed to update pantry"
	MessageFailedRotateJoinToken  = "failed to rotate join token"
	MessageFailedGenerateQRCode   = "failed to generate join QR code"
	MessageFailedAddMember        = "failed to add member"
	MessageFailedRemoveMember     = "failed to remove member"
	MessageFailedSelectPantry     = "failed to select current pantry"
	MessageFailedResolveSession   = "failed to resolve current pantry"
)

const (
	// PantryHeader selects the pantry for a single request, overriding the
	// user's stored current pantry.
	PantryHeader = "X-Pantry-ID"

	DefaultPantryNameSuffix = "'s Pantry"
)

type (
	CreatePantryRequest struct {
		Name string `json:"name" validate:"required,min=1,max=100"`
	}

	UpdatePantryRequest struct {
		Name string `json:"name" validate:"required,min=1,max=100"`
	}

	AddMemberRequest struct {
		UserID string `json:"user_id" validate:"required,uuid"`
	}

	SelectPantryRequest struct {
		PantryID string `json:"pantry_id" validate:"required,uuid"`
	}

	PantryMemberResponse struct {
		UserID   string    `json:"user_id"`
		Name     string    `json:"name,omitempty"`
		JoinedAt time.Time `json:"joined_at"`
	}

	PantryResponse struct {
		ID        string                 `json:"id"`
		Name      string                 `json:"name"`
		OwnerID   string                 `json:"owner_id"`
		JoinToken string                 `json:"join_token,omitempty"`
		Members   []PantryMemberResponse `json:"members"`
		ItemCount int                    `json:"item_count"`
		CreatedAt time.Time              `json:"created_at"`
	}

	JoinTokenResponse struct {
		PantryID  string `json:"pantry_id"`
		JoinToken string `json:"join_token"`
		JoinURL   string `json:"join_url"`
	}
)
