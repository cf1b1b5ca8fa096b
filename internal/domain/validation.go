package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors carries per-field validation messages and unwraps to
// ErrMissingRequiredField.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return fmt.Sprintf("%s: %s", ErrMissingRequiredField, strings.Join(parts, "; "))
}

func (e FieldErrors) Unwrap() error {
	return ErrMissingRequiredField
}
