package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/config"
	"github.com/spec-kit/jwt-builder/internal/events"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/observability"
	"github.com/spec-kit/jwt-builder/internal/roles"
	"github.com/spec-kit/jwt-builder/internal/session"
	"github.com/spec-kit/jwt-builder/internal/token"
)

// BuilderService coordinates role composition, claim assembly and signing.
type BuilderService struct {
	catalog       *catalog.Catalog
	sessions      session.Store
	signer        *token.Signer
	clock         expiry.Clock
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	defaultExpiry string
	seededSecret  string
	locks         *sessionLocks
}

// BuilderDependencies encapsulates collaborators for the builder service.
type BuilderDependencies struct {
	Catalog    *catalog.Catalog
	Sessions   session.Store
	Signer     *token.Signer
	Clock      expiry.Clock
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// SeededSecret is the value produced by the startup bootstrap, if any.
	SeededSecret string
}

// NewBuilderService builds the service.
func NewBuilderService(cfg config.BuilderConfig, deps BuilderDependencies) *BuilderService {
	svc := &BuilderService{
		catalog:       deps.Catalog,
		sessions:      deps.Sessions,
		signer:        deps.Signer,
		clock:         deps.Clock,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		defaultExpiry: cfg.DefaultExpiry,
		seededSecret:  deps.SeededSecret,
		locks:         newSessionLocks(),
	}
	if svc.catalog == nil {
		svc.catalog = catalog.Default()
	}
	if svc.sessions == nil {
		svc.sessions = session.NewMemoryStore(cfg.SessionTTL())
	}
	if svc.clock == nil {
		svc.clock = expiry.SystemClock{}
	}
	if svc.signer == nil {
		svc.signer = token.NewSigner(token.WithClock(svc.clock))
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if !expiry.Valid(svc.defaultExpiry) {
		svc.defaultExpiry = expiry.Default
	}
	return svc
}

// Catalog exposes the role taxonomy.
func (s *BuilderService) Catalog() *catalog.Catalog {
	return s.catalog
}

// SecretSeeded reports whether a bootstrap secret is available as the default.
func (s *BuilderService) SecretSeeded() bool {
	return s.seededSecret != ""
}

// FormUpdate carries a partial update of the session form. Nil fields are
// left untouched.
type FormUpdate struct {
	Name     *string
	Company  *string
	Audience *string
	Expiry   *string
}

// Form is a complete, stateless token request.
type Form struct {
	Identity   claims.Identity
	Selections []catalog.Selection
	Audience   string
	Expiry     string
}

// Issued is the result of signing.
type Issued struct {
	Token     string
	Preview   *token.Decoded
	Claims    claims.ClaimSet
	ExpiresAt time.Time
}

// CreateSession starts an empty builder session.
func (s *BuilderService) CreateSession(ctx context.Context) (*session.Session, error) {
	sess := session.New(uuid.NewString(), s.defaultExpiry, s.clock.Now())
	if err := s.sessions.Save(ctx, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSession loads a session.
func (s *BuilderService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.sessions.Get(ctx, id)
}

// DeleteSession discards a session.
func (s *BuilderService) DeleteSession(ctx context.Context, id string) error {
	defer s.locks.lock(id)()

	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// UpdateSession applies form edits. An unrecognized expiry is rejected so a
// stale value never reaches issuance. Edits to one session are serialized.
func (s *BuilderService) UpdateSession(ctx context.Context, id string, update FormUpdate) (*session.Session, error) {
	defer s.locks.lock(id)()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Expiry != nil {
		if _, err := expiry.Duration(*update.Expiry); err != nil {
			return nil, err
		}
		sess.Expiry = *update.Expiry
	}
	if update.Name != nil {
		sess.Name = *update.Name
	}
	if update.Company != nil {
		sess.Company = *update.Company
	}
	if update.Audience != nil {
		sess.Audience = *update.Audience
	}
	sess.UpdatedAt = s.clock.Now()

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AddRole validates sel against the catalog, composes it and adds it to the
// session. Adding a role already present is a no-op; added reports whether
// the set changed.
func (s *BuilderService) AddRole(ctx context.Context, id string, sel catalog.Selection) (sess *session.Session, added bool, err error) {
	role, err := s.composeSelection(sel)
	if err != nil {
		return nil, false, err
	}

	defer s.locks.lock(id)()
	sess, err = s.sessions.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if sess.Roles.Contains(role) {
		return sess, false, nil
	}

	next := sess.WithRole(role, s.clock.Now())
	if err := s.sessions.Save(ctx, &next); err != nil {
		return nil, false, err
	}
	s.publish(ctx, events.EventRoleAdded, id, events.RoleChangedPayload{Role: role, Count: next.Roles.Len()})
	return &next, true, nil
}

// RemoveRole drops role from the session.
func (s *BuilderService) RemoveRole(ctx context.Context, id, role string) (*session.Session, error) {
	defer s.locks.lock(id)()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Roles.Contains(role) {
		return sess, nil
	}

	next := sess.WithoutRole(role, s.clock.Now())
	if err := s.sessions.Save(ctx, &next); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventRoleRemoved, id, events.RoleChangedPayload{Role: role, Count: next.Roles.Len()})
	return &next, nil
}

// IssueForSession signs the session's current form with secret, or with the
// bootstrap secret when secret is empty.
func (s *BuilderService) IssueForSession(ctx context.Context, id, secret string) (*Issued, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	identity := claims.Identity{Name: sess.Name, Company: sess.Company, Secret: secret}
	return s.issue(ctx, id, identity, sess.Roles, sess.Audience, sess.Expiry)
}

// Issue signs a complete form without a session.
func (s *BuilderService) Issue(ctx context.Context, form Form) (*Issued, error) {
	set := roles.Set{}
	for _, sel := range form.Selections {
		role, err := s.composeSelection(sel)
		if err != nil {
			return nil, err
		}
		set = set.Add(role)
	}
	exp := form.Expiry
	if exp == "" {
		exp = s.defaultExpiry
	}
	return s.issue(ctx, "", form.Identity, set, form.Audience, exp)
}

// Decode returns an unverified preview of tokenString.
func (s *BuilderService) Decode(tokenString string) (*token.Decoded, error) {
	return s.signer.Decode(tokenString)
}

// Verify checks tokenString against secret, falling back to the bootstrap
// secret when secret is empty.
func (s *BuilderService) Verify(tokenString, secret string) (claims.ClaimSet, error) {
	return s.signer.Verify(tokenString, s.secretOrSeed(secret))
}

func (s *BuilderService) issue(ctx context.Context, sessionID string, identity claims.Identity, set roles.Set, aud, expToken string) (*Issued, error) {
	identity.Secret = s.secretOrSeed(identity.Secret)
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	expiresAt, err := expiry.Resolve(expToken, s.clock.Now())
	if err != nil {
		return nil, err
	}

	claimSet := claims.Build(identity, set, aud, expiresAt)
	signed, err := s.signer.Sign(claimSet, identity.Secret)
	if err != nil {
		return nil, err
	}
	preview, err := s.signer.Decode(signed)
	if err != nil {
		return nil, fmt.Errorf("preview issued token: %w", err)
	}

	s.metrics.RecordIssued()
	_, hasAud := claimSet.Audience()
	s.publish(ctx, events.EventTokenIssued, sessionID, events.TokenIssuedPayload{
		Roles:       claimSet.Roles(),
		ExpiresAt:   claimSet.ExpiresAt(),
		HasAudience: hasAud,
	})

	return &Issued{
		Token:     signed,
		Preview:   preview,
		Claims:    claimSet,
		ExpiresAt: claimSet.ExpiresAt(),
	}, nil
}

func (s *BuilderService) composeSelection(sel catalog.Selection) (string, error) {
	if err := s.catalog.Validate(sel); err != nil {
		return "", err
	}
	return roles.Compose(sel.Table, sel.Role, sel.SubRole)
}

func (s *BuilderService) secretOrSeed(secret string) string {
	if secret == "" {
		return s.seededSecret
	}
	return secret
}

func (s *BuilderService) publish(ctx context.Context, eventType events.EventType, sessionID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: s.clock.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
