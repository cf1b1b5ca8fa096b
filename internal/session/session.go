package session

import (
	"time"

	"github.com/spec-kit/jwt-builder/internal/roles"
)

// Session is the builder form state of one operator. The secret is never
// part of it.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Audience  string    `json:"aud"`
	Expiry    string    `json:"expiry"`
	Roles     roles.Set `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty session with the given expiry preselected.
func New(id, defaultExpiry string, now time.Time) Session {
	return Session{
		ID:        id,
		Expiry:    defaultExpiry,
		Roles:     roles.Set{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithRole returns a copy of s with role added to the front of its roles.
func (s Session) WithRole(role string, now time.Time) Session {
	next := s.Roles.Add(role)
	if next.Equal(s.Roles) {
		return s
	}
	s.Roles = next
	s.UpdatedAt = now
	return s
}

// WithoutRole returns a copy of s without role.
func (s Session) WithoutRole(role string, now time.Time) Session {
	if !s.Roles.Contains(role) {
		return s
	}
	s.Roles = s.Roles.Remove(role)
	s.UpdatedAt = now
	return s
}
