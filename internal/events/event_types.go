package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRoleAdded   EventType = "role_added"
	EventRoleRemoved EventType = "role_removed"
	EventTokenIssued EventType = "token_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RoleChangedPayload payload for role added/removed.
type RoleChangedPayload struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// TokenIssuedPayload payload. Carries no secret and no token.
type TokenIssuedPayload struct {
	Roles       []string  `json:"roles"`
	ExpiresAt   time.Time `json:"expires_at"`
	HasAudience bool      `json:"has_audience"`
}
