package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/internal/expiry"
)

// Signer issues HS256 tokens from claim sets.
type Signer struct {
	method jwt.SigningMethod
	parser *jwt.Parser
	clock  expiry.Clock
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock sets the clock used to check expiry in Verify.
func WithClock(clock expiry.Clock) Option {
	return func(s *Signer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSigner builds a signer using HMAC-SHA256.
func NewSigner(opts ...Option) *Signer {
	s := &Signer{
		method: jwt.SigningMethodHS256,
		parser: jwt.NewParser(),
		clock:  expiry.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign serializes c and signs it with secret. The secret is used for this
// call only.
func (s *Signer) Sign(c claims.ClaimSet, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("sign token: secret: %w", domain.ErrMissingRequiredField)
	}

	tok := jwt.NewWithClaims(s.method, payloadFrom(c))
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decoded is an unverified view of a token. Claims is nil when the payload
// does not fit the builder's claim shape, such as an array aud.
type Decoded struct {
	Header    map[string]any `json:"header"`
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature"`
	Claims    *Payload       `json:"-"`
}

// Decode parses a token without checking its signature. Only structural
// problems are errors; any JSON object payload is accepted.
func (s *Signer) Decode(tokenString string) (*Decoded, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("decode token: expected 3 segments: %w", domain.ErrMalformedToken)
	}

	fields := jwt.MapClaims{}
	tok, _, err := s.parser.ParseUnverified(tokenString, fields)
	if err != nil {
		return nil, fmt.Errorf("decode token: %v: %w", err, domain.ErrMalformedToken)
	}

	decoded := &Decoded{
		Header:    tok.Header,
		Payload:   map[string]any(fields),
		Signature: parts[2],
	}

	rawPayload, err := s.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode token payload: %v: %w", err, domain.ErrMalformedToken)
	}
	var payload Payload
	if json.Unmarshal(rawPayload, &payload) == nil {
		decoded.Claims = &payload
	}
	return decoded, nil
}

// Verify checks the signature with secret and that the token has not
// expired, returning its claims.
func (s *Signer) Verify(tokenString, secret string) (claims.ClaimSet, error) {
	if secret == "" {
		return claims.ClaimSet{}, fmt.Errorf("verify token: secret: %w", domain.ErrMissingRequiredField)
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Payload{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return claims.ClaimSet{}, mapParseError(err)
	}

	payload, ok := parsed.Claims.(*Payload)
	if !ok || !parsed.Valid {
		return claims.ClaimSet{}, fmt.Errorf("verify token: %w", domain.ErrInvalidSignature)
	}
	return payload.ClaimSet(), nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("verify token: %v: %w", err, domain.ErrMalformedToken)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("verify token: %w", domain.ErrTokenExpired)
	default:
		return fmt.Errorf("verify token: %v: %w", err, domain.ErrInvalidSignature)
	}
}
