package claims

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/internal/roles"
)

// Identity is the subject metadata plus the signing secret.
type Identity struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Secret  string `json:"secret"`
}

// Validate reports empty required fields as domain.FieldErrors.
func (i Identity) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.Company, validation.Required),
		validation.Field(&i.Secret, validation.Required),
	)
	return toFieldErrors(err)
}

func toFieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(domain.FieldErrors, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	return fields
}

// ClaimSet is the set of facts a token asserts. The audience is either
// present and non-empty or absent.
type ClaimSet struct {
	roles     []string
	name      string
	company   string
	expiresAt time.Time
	audience  *string
}

// Build assembles a claim set. Identity fields are expected to be validated
// by the caller; the secret is ignored. An empty aud yields a claim set
// without audience. expiresAt is truncated to whole seconds.
func Build(identity Identity, set roles.Set, aud string, expiresAt time.Time) ClaimSet {
	c := ClaimSet{
		roles:     set.Items(),
		name:      identity.Name,
		company:   identity.Company,
		expiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}
	if aud != "" {
		c.audience = &aud
	}
	return c
}

// Roles returns the granted roles in the order they were composed.
func (c ClaimSet) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}

func (c ClaimSet) Name() string {
	return c.name
}

func (c ClaimSet) Company() string {
	return c.company
}

// ExpiresAt is the absolute expiration instant, in UTC.
func (c ClaimSet) ExpiresAt() time.Time {
	return c.expiresAt
}

// Audience returns the audience and whether one is set.
func (c ClaimSet) Audience() (string, bool) {
	if c.audience == nil {
		return "", false
	}
	return *c.audience, true
}
