package roles

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spec-kit/jwt-builder/internal/domain"
)

const separator = "_"

// Compose joins the non-empty parts of a table/role/sub-role selection with
// an underscore. The table is required. Each part is trimmed of surrounding
// whitespace first, so a blank role or sub-role is treated as absent and
// ("users", "  ", "") composes to "users" rather than "users_  ".
func Compose(table, role, subRole string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("compose role: table: %w", domain.ErrMissingRequiredField)
	}

	parts := []string{table}
	for _, part := range []string{role, subRole} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, separator), nil
}

// Set is an ordered list of unique composed roles, most recent first.
// Its methods never modify the receiver.
type Set struct {
	items []string
}

// NewSet builds a set from roles, keeping the first occurrence of each and
// dropping empty strings.
func NewSet(roles ...string) Set {
	s := Set{}
	for i := len(roles) - 1; i >= 0; i-- {
		s = s.Add(roles[i])
	}
	return s
}

// Add returns a new set with role prepended. Empty or already present roles
// leave the set unchanged.
func (s Set) Add(role string) Set {
	if role == "" || s.Contains(role) {
		return s
	}
	items := make([]string, 0, len(s.items)+1)
	items = append(items, role)
	items = append(items, s.items...)
	return Set{items: items}
}

// Remove returns a new set without role.
func (s Set) Remove(role string) Set {
	if !s.Contains(role) {
		return s
	}
	items := make([]string, 0, len(s.items))
	for _, item := range s.items {
		if item != role {
			items = append(items, item)
		}
	}
	return Set{items: items}
}

// Contains reports whether role is in the set.
func (s Set) Contains(role string) bool {
	return slices.Contains(s.items, role)
}

func (s Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the roles in order.
func (s Set) Items() []string {
	if s.items == nil {
		return []string{}
	}
	return slices.Clone(s.items)
}

// Equal reports whether both sets hold the same roles in the same order.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s.items, other.items)
}

// MarshalJSON encodes the set as a JSON array, never null.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// UnmarshalJSON decodes a JSON array, keeping order and dropping duplicates.
func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
