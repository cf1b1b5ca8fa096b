package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/config"
	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/internal/events"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/observability"
	"github.com/spec-kit/jwt-builder/internal/service"
	"github.com/spec-kit/jwt-builder/internal/session"
)

var t0 = time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *service.BuilderService
	metrics *observability.Metrics
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, seeded string) fixture {
	t.Helper()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()
	metrics := observability.NewMetrics()

	cat := catalog.New(catalog.Data{
		Tables: []string{"orders", "users"},
		Roles:  []string{"viewer", "admin"},
		SubRoles: []catalog.SubRoleGroup{
			{Role: "admin", Roles: []string{"super"}},
		},
	})

	svc := service.NewBuilderService(config.BuilderConfig{DefaultExpiry: "1y"}, service.BuilderDependencies{
		Catalog:      cat,
		Sessions:     session.NewMemoryStore(0),
		Clock:        expiry.FixedClock(t0),
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		SeededSecret: seeded,
	})
	return fixture{svc: svc, metrics: metrics, logs: logs}
}

func strPtr(s string) *string { return &s }

func TestCreateSession_Defaults(t *testing.T) {
	f := newFixture(t, "")

	sess, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "1y", sess.Expiry)
	assert.Empty(t, sess.Roles.Items())
	assert.Equal(t, t0, sess.CreatedAt)
}

func TestSessionFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpdateSession(ctx, sess.ID, service.FormUpdate{
		Name:    strPtr("Alice"),
		Company: strPtr("Acme"),
		Expiry:  strPtr("30d"),
	})
	require.NoError(t, err)

	_, added, err := f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "orders", Role: "viewer"})
	require.NoError(t, err)
	assert.True(t, added)
	_, added, err = f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "orders", Role: "admin"})
	require.NoError(t, err)
	assert.True(t, added)
	got, added, err := f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "orders", Role: "viewer"})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"orders_admin", "orders_viewer"}, got.Roles.Items())

	issued, err := f.svc.IssueForSession(ctx, sess.ID, "s3cr3t")
	require.NoError(t, err)

	assert.Equal(t, t0.Add(30*24*time.Hour), issued.ExpiresAt)
	assert.Equal(t, map[string]any{
		"name":    "Alice",
		"company": "Acme",
		"roles":   []any{"orders_admin", "orders_viewer"},
		"exp":     float64(t0.Add(30 * 24 * time.Hour).Unix()),
	}, issued.Preview.Payload)
	assert.Equal(t, int64(1), f.metrics.Snapshot().TokensIssued)

	issuedLogs := f.logs.FilterMessage("TokenIssued").All()
	require.Len(t, issuedLogs, 1)
	for _, entry := range f.logs.All() {
		for _, field := range entry.Context {
			assert.NotEqual(t, "s3cr3t", field.String)
			assert.NotEqual(t, issued.Token, field.String)
		}
	}
}

func TestIssueForSession_MissingFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.IssueForSession(ctx, sess.ID, "")
	require.ErrorIs(t, err, domain.ErrMissingRequiredField)

	var fields domain.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "company")
	assert.Contains(t, fields, "secret")
	assert.Zero(t, f.metrics.Snapshot().TokensIssued)
}

func TestIssueForSession_UsesSeededSecret(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "seeded")
	assert.True(t, f.svc.SecretSeeded())

	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.svc.UpdateSession(ctx, sess.ID, service.FormUpdate{Name: strPtr("Bob"), Company: strPtr("Initech")})
	require.NoError(t, err)

	issued, err := f.svc.IssueForSession(ctx, sess.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Verify(issued.Token, "seeded")
	require.NoError(t, err)
	_, err = f.svc.Verify(issued.Token, "")
	require.NoError(t, err)
	_, err = f.svc.Verify(issued.Token, "other")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestUpdateSession_RejectsUnknownExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpdateSession(ctx, sess.ID, service.FormUpdate{Expiry: strPtr("5y")})
	assert.ErrorIs(t, err, domain.ErrInvalidExpiryToken)

	stored, err := f.svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "1y", stored.Expiry)
}

func TestUpdateSession_ClearsAudience(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpdateSession(ctx, sess.ID, service.FormUpdate{
		Name: strPtr("Alice"), Company: strPtr("Acme"), Audience: strPtr("public"),
	})
	require.NoError(t, err)
	issued, err := f.svc.IssueForSession(ctx, sess.ID, "k")
	require.NoError(t, err)
	assert.Equal(t, "public", issued.Preview.Payload["aud"])

	_, err = f.svc.UpdateSession(ctx, sess.ID, service.FormUpdate{Audience: strPtr("")})
	require.NoError(t, err)
	issued, err = f.svc.IssueForSession(ctx, sess.ID, "k")
	require.NoError(t, err)
	assert.NotContains(t, issued.Preview.Payload, "aud")
}

func TestAddRole_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = f.svc.AddRole(ctx, sess.ID, catalog.Selection{})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)

	_, _, err = f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "payments"})
	assert.ErrorIs(t, err, domain.ErrUnknownSelection)

	got, _, err := f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "users", Role: "admin", SubRole: "super"})
	require.NoError(t, err)
	assert.Equal(t, []string{"users_admin_super"}, got.Roles.Items())

	_, _, err = f.svc.AddRole(ctx, "missing", catalog.Selection{Table: "users"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRemoveRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	_, _, err = f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "orders"})
	require.NoError(t, err)
	_, _, err = f.svc.AddRole(ctx, sess.ID, catalog.Selection{Table: "users"})
	require.NoError(t, err)

	got, err := f.svc.RemoveRole(ctx, sess.ID, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, got.Roles.Items())

	got, err = f.svc.RemoveRole(ctx, sess.ID, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, got.Roles.Items())
	assert.Len(t, f.logs.FilterMessage("RoleChanged").All(), 3)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(ctx, sess.ID))
	_, err = f.svc.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, sess.ID), domain.ErrSessionNotFound)
}

func TestIssue_Stateless(t *testing.T) {
	f := newFixture(t, "")

	issued, err := f.svc.Issue(context.Background(), service.Form{
		Identity: claims.Identity{Name: "Alice", Company: "Acme", Secret: "k"},
		Selections: []catalog.Selection{
			{Table: "orders", Role: "viewer"},
			{Table: "orders", Role: "admin"},
			{Table: "orders", Role: "viewer"},
		},
		Audience: "public",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"orders_admin", "orders_viewer"}, issued.Claims.Roles())
	assert.Equal(t, t0.Add(365*24*time.Hour), issued.ExpiresAt)
	aud, ok := issued.Claims.Audience()
	assert.True(t, ok)
	assert.Equal(t, "public", aud)
}

func TestIssue_InvalidExpiry(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.svc.Issue(context.Background(), service.Form{
		Identity: claims.Identity{Name: "Alice", Company: "Acme", Secret: "k"},
		Expiry:   "5y",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidExpiryToken)
}

func TestDecode_Malformed(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.svc.Decode("not-a-token")

	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

type slowStore struct {
	session.Store
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.Store.Get(ctx, id)
	time.Sleep(s.delay)
	return sess, err
}

func TestAddRole_ConcurrentEditsAreKept(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Default()
	svc := service.NewBuilderService(config.BuilderConfig{DefaultExpiry: "1y"}, service.BuilderDependencies{
		Catalog:  cat,
		Sessions: slowStore{Store: session.NewMemoryStore(0), delay: time.Millisecond},
		Clock:    expiry.FixedClock(t0),
		Logger:   zap.NewNop(),
	})
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, table := range cat.Tables() {
		wg.Add(1)
		go func(table string) {
			defer wg.Done()
			_, _, err := svc.AddRole(ctx, sess.ID, catalog.Selection{Table: table})
			assert.NoError(t, err)
		}(table)
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, cat.Tables(), got.Roles.Items())
}

func TestUpdateSession_ConcurrentFieldsAreKept(t *testing.T) {
	ctx := context.Background()
	svc := service.NewBuilderService(config.BuilderConfig{DefaultExpiry: "1y"}, service.BuilderDependencies{
		Sessions: slowStore{Store: session.NewMemoryStore(0), delay: time.Millisecond},
		Clock:    expiry.FixedClock(t0),
		Logger:   zap.NewNop(),
	})
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	updates := []service.FormUpdate{
		{Name: strPtr("Alice")},
		{Company: strPtr("Acme")},
		{Audience: strPtr("public")},
		{Expiry: strPtr("30d")},
	}
	var wg sync.WaitGroup
	for _, u := range updates {
		wg.Add(1)
		go func(u service.FormUpdate) {
			defer wg.Done()
			_, err := svc.UpdateSession(ctx, sess.ID, u)
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "public", got.Audience)
	assert.Equal(t, "30d", got.Expiry)
}
