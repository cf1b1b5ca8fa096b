package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/session"
	apperrors "github.com/spec-kit/jwt-builder/pkg/util/errorutil"
)

// SessionUpdateRequest patches the builder form. Absent fields are kept.
type SessionUpdateRequest struct {
	Name     *string `json:"name"`
	Company  *string `json:"company"`
	Audience *string `json:"aud"`
	Expiry   *string `json:"expiry"`
}

// RoleSelectionRequest picks a table, role and sub-role from the catalog.
type RoleSelectionRequest struct {
	Table   string `json:"table"`
	Role    string `json:"role"`
	SubRole string `json:"sub_role"`
}

func (r RoleSelectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Table, validation.Required),
		validation.Field(&r.SubRole, validation.By(func(interface{}) error {
			if r.SubRole != "" && r.Role == "" {
				return errors.New("requires a role")
			}
			return nil
		})),
	)
}

// Selection converts the request into a catalog selection.
func (r RoleSelectionRequest) Selection() catalog.Selection {
	return catalog.Selection{Table: r.Table, Role: r.Role, SubRole: r.SubRole}
}

// SessionTokenRequest signs a session's form. The secret may be omitted when
// the server was started with a seeded secret.
type SessionTokenRequest struct {
	Secret string `json:"secret"`
}

// IssueTokenRequest is a complete stateless form.
type IssueTokenRequest struct {
	Name     string                 `json:"name"`
	Company  string                 `json:"company"`
	Secret   string                 `json:"secret"`
	Roles    []RoleSelectionRequest `json:"roles"`
	Audience string                 `json:"aud"`
	Expiry   string                 `json:"expiry"`
}

func (r IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Roles),
	)
}

// DecodeTokenRequest asks for an unverified preview.
type DecodeTokenRequest struct {
	Token string `json:"token"`
}

func (r DecodeTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// VerifyTokenRequest re-validates a token with a secret.
type VerifyTokenRequest struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

func (r VerifyTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// SessionResponse exposes the builder form. It never includes a secret.
type SessionResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Company      string    `json:"company"`
	Audience     string    `json:"aud"`
	Expiry       string    `json:"expiry"`
	Roles        []string  `json:"roles"`
	SecretSeeded bool      `json:"secret_seeded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSessionResponse maps a session.
func NewSessionResponse(s *session.Session, secretSeeded bool) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		Name:         s.Name,
		Company:      s.Company,
		Audience:     s.Audience,
		Expiry:       s.Expiry,
		Roles:        s.Roles.Items(),
		SecretSeeded: secretSeeded,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// PreviewResponse is the decoded header and payload of a token.
type PreviewResponse struct {
	Header  map[string]any `json:"header"`
	Payload map[string]any `json:"payload"`
}

// TokenResponse carries a signed token and its preview.
type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Preview   PreviewResponse `json:"preview"`
}

// CatalogResponse is the role taxonomy plus the expiry choices.
type CatalogResponse struct {
	catalog.Data
	ExpiryOptions []expiry.Option `json:"expiry_options"`
	DefaultExpiry string          `json:"default_expiry"`
}

// ClaimsResponse is a verified claim set.
type ClaimsResponse struct {
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"exp"`
	Audience  *string   `json:"aud,omitempty"`
}

// ValidationError turns ozzo field errors into a VALIDATION_FAILED domain error.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for field, ferr := range verrs {
		details[field] = ferr.Error()
	}
	return apperrors.NewValidationError("invalid payload", details)
}
