package entities

import "time"

const (
	EventNewItem             = "newItem"
	EventJoinRequestCreated  = "joinRequestCreated"
	EventJoinRequestFailed   = "joinRequestFailed"
	EventJoinRequestAccepted = "joinRequestAccepted"
	EventJoinRequestDenied   = "joinRequestDenied"
	EventNewMember           = "newMember"
	EventAction              = "action"
	EventReminder            = "reminder"
	EventGeneral             = "general"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Event is stored in DynamoDB, partitioned by scope (PK) and sorted by a ULID (SK)
// so a descending query returns the newest events first.
type Event struct {
	PK string `dynamodbav:"PK" json:"-"` // USER#<id> | PANTRY#<id>
	SK string `dynamodbav:"SK" json:"-"` // EVENT#<ulid>

	ID            string            `dynamodbav:"id" json:"id"`
	Title         string            `dynamodbav:"title" json:"title"`
	Message       string            `dynamodbav:"message" json:"message"`
	Priority      string            `dynamodbav:"priority" json:"priority"`
	Timestamp     time.Time         `dynamodbav:"timestamp" json:"timestamp"`
	ReadBy        []string          `dynamodbav:"read_by,stringset,omitempty" json:"read_by"`
	Type          string            `dynamodbav:"type" json:"type"`
	ActionID      string            `dynamodbav:"action_id,omitempty" json:"action_id,omitempty"`
	ActionPayload map[string]string `dynamodbav:"action_payload,omitempty" json:"action_payload,omitempty"`
}

func (e *Event) IsReadBy(userID string) bool {
	for _, id := range e.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
