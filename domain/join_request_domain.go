package domain

import "time"

var (
	MessageSuccessCreateJoinRequest  = "join request sent successfully"
	MessageSuccessGetJoinRequests    = "join requests retrieved successfully"
	MessageSuccessApproveJoinRequest = "join request approved successfully"
	MessageSuccessRejectJoinRequest  = "join request rejected successfully"

	MessageFailedCreateJoinRequest  = "failed to send join request"
	MessageFailedGetJoinRequests    = "failed to retrieve join requests"
	MessageFailedApproveJoinRequest = "failed to approve join request"
	MessageFailedRejectJoinRequest  = "failed to reject join request"
)

type (
	CreateJoinRequestRequest struct {
		JoinToken string `json:"join_token" validate:"required"`
		Email     string `json:"email" validate:"omitempty,email"`
	}

	// Requester identifies who is asking to join. Name is shown to members.
	Requester struct {
		UserID string
		Name   string
		Email  *string
	}

	JoinRequestResponse struct {
		ID            string     `json:"id"`
		PantryID      string     `json:"pantry_id"`
		RequesterID   string     `json:"requester_id"`
		RequesterName string     `json:"requester_name"`
		Email         *string    `json:"email,omitempty"`
		Status        string     `json:"status"`
		CreatedAt     time.Time  `json:"created_at"`
		RespondedAt   *time.Time `json:"responded_at,omitempty"`
		RespondedBy   *string    `json:"responded_by,omitempty"`
	}
)
