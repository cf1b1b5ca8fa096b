package token

import (
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/roles"
)

// Payload is the JWT body. Audience stays a plain string so a single
// audience is serialized as "aud":"x" rather than an array.
type Payload struct {
	Roles     []string         `json:"roles"`
	Name      string           `json:"name"`
	Company   string           `json:"company"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	Audience  string           `json:"aud,omitempty"`
}

var _ jwt.Claims = (*Payload)(nil)

func payloadFrom(c claims.ClaimSet) *Payload {
	p := &Payload{
		Roles:     c.Roles(),
		Name:      c.Name(),
		Company:   c.Company(),
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt()),
	}
	if aud, ok := c.Audience(); ok {
		p.Audience = aud
	}
	return p
}

// ClaimSet converts the payload back to a claim set.
func (p *Payload) ClaimSet() claims.ClaimSet {
	identity := claims.Identity{Name: p.Name, Company: p.Company}
	var exp jwt.NumericDate
	if p.ExpiresAt != nil {
		exp = *p.ExpiresAt
	}
	return claims.Build(identity, roles.NewSet(p.Roles...), p.Audience, exp.Time)
}

func (p *Payload) GetExpirationTime() (*jwt.NumericDate, error) { return p.ExpiresAt, nil }
func (p *Payload) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (p *Payload) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (p *Payload) GetIssuer() (string, error)                   { return "", nil }
func (p *Payload) GetSubject() (string, error)                  { return "", nil }

func (p *Payload) GetAudience() (jwt.ClaimStrings, error) {
	if p.Audience == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{p.Audience}, nil
}
