package expiry

import (
	"fmt"
	"time"

	"github.com/spec-kit/jwt-builder/internal/domain"
)

const day = 24 * time.Hour

const (
	OneYear    = "1y"
	ThirtyDays = "30d"

	// Default is preselected for new sessions.
	Default = OneYear
)

// Option is a recognized expiry token with its display label.
type Option struct {
	Token    string        `json:"token"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"-"`
}

var options = []Option{
	{Token: OneYear, Label: "1 year", Duration: 365 * day},
	{Token: ThirtyDays, Label: "30 days", Duration: 30 * day},
}

// Options lists the recognized expiry tokens in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Duration returns the validity period for token.
func Duration(token string) (time.Duration, error) {
	for _, opt := range options {
		if opt.Token == token {
			return opt.Duration, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", token, domain.ErrInvalidExpiryToken)
}

// Valid reports whether token is a recognized expiry token.
func Valid(token string) bool {
	_, err := Duration(token)
	return err == nil
}

// Resolve returns the absolute expiration instant for token counted from now.
func Resolve(token string, now time.Time) (time.Time, error) {
	d, err := Duration(token)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(d), nil
}
