package domain

import (
	"fmt"
	"time"
)

var (
	MessageSuccessGetEvents = "events retrieved successfully"
	MessageSuccessMarkRead  = "event marked as read"
	MessageFailedGetEvents  = "failed to retrieve events"
	MessageFailedMarkRead   = "failed to mark event as read"
	MessageFailedOpenStream = "failed to open event stream"
	MessageUpgradeRequired  = "websocket upgrade required"

	StreamKindEvents  = "events"
	StreamKindBanner  = "banner"
	StreamKindPending = "pending"

	StreamActionDismiss      = "dismiss"
	StreamActionRead         = "read"
	ScopeKindUser            = "USER"
	ScopeKindPantry          = "PANTRY"
	EventSortKeyPrefix       = "EVENT#"
	JoinRequestBannerKeyTmpl = "join-request:%s"
)

// EventScope is the audience of an event: one user or every member of a pantry.
type EventScope struct {
	Kind string
	ID   string
}

func UserScope(userID string) EventScope {
	return EventScope{Kind: ScopeKindUser, ID: userID}
}

func PantryScope(pantryID string) EventScope {
	return EventScope{Kind: ScopeKindPantry, ID: pantryID}
}

// Key is the partition key of the scope in the event table.
func (s EventScope) Key() string {
	return s.Kind + "#" + s.ID
}

// Channel is the pub/sub channel notified on every append to the scope.
func (s EventScope) Channel() string {
	return fmt.Sprintf("events:%s:%s", s.Kind, s.ID)
}

type (
	// NewEvent is what producers hand to the publisher; id, timestamp and
	// read_by are filled in on append.
	NewEvent struct {
		Type          string
		Title         string
		Message       string
		Priority      string
		ActionID      string
		ActionPayload map[string]string
	}

	EventResponse struct {
		ID            string            `json:"id"`
		Type          string            `json:"type"`
		Title         string            `json:"title"`
		Message       string            `json:"message"`
		Priority      string            `json:"priority"`
		Timestamp     time.Time         `json:"timestamp"`
		Read          bool              `json:"read"`
		ReadBy        []string          `json:"read_by"`
		ActionID      string            `json:"action_id,omitempty"`
		ActionPayload map[string]string `json:"action_payload,omitempty"`
	}

	// Banner is a transient in-app notification pushed over the event stream.
	Banner struct {
		Key       string `json:"key"`
		EventID   string `json:"event_id"`
		Type      string `json:"type"`
		Title     string `json:"title"`
		Message   string `json:"message"`
		ActionID  string `json:"action_id,omitempty"`
		PantryID  string `json:"pantry_id,omitempty"`
		Requester string `json:"requester,omitempty"`
	}

	// StreamCommand is sent by websocket clients to dismiss a banner or mark an
	// event read.
	StreamCommand struct {
		Action  string `json:"action"`
		Key     string `json:"key"`
		EventID string `json:"event_id"`
		Scope   string `json:"scope"`
	}

	StreamMessage struct {
		Kind    string          `json:"kind"`
		Scope   string          `json:"scope,omitempty"`
		Events  []EventResponse `json:"events,omitempty"`
		Banner  *Banner         `json:"banner,omitempty"`
		Pending interface{}     `json:"pending,omitempty"`
	}
)
