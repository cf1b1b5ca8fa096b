package claims_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/internal/roles"
)

var exp = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func identity() claims.Identity {
	return claims.Identity{Name: "Alice", Company: "Acme", Secret: "s3cr3t"}
}

func TestBuild_WithoutAudience(t *testing.T) {
	c := claims.Build(identity(), roles.NewSet("a"), "", exp)

	aud, ok := c.Audience()
	assert.False(t, ok)
	assert.Empty(t, aud)
}

func TestBuild_WithAudience(t *testing.T) {
	c := claims.Build(identity(), roles.NewSet("a"), "public", exp)

	aud, ok := c.Audience()
	assert.True(t, ok)
	assert.Equal(t, "public", aud)
}

func TestBuild_PreservesFields(t *testing.T) {
	set := roles.Set{}.Add("orders_viewer").Add("orders_admin")
	c := claims.Build(identity(), set, "", exp.Add(750*time.Millisecond))

	assert.Equal(t, "Alice", c.Name())
	assert.Equal(t, "Acme", c.Company())
	assert.Equal(t, []string{"orders_admin", "orders_viewer"}, c.Roles())
	assert.Equal(t, exp, c.ExpiresAt())
}

func TestBuild_DoesNotShareRoleStorage(t *testing.T) {
	set := roles.NewSet("a", "b")
	c := claims.Build(identity(), set, "", exp)

	got := c.Roles()
	got[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, c.Roles())
	assert.Equal(t, []string{"a", "b"}, set.Items())
}

func TestBuild_EmptyRoles(t *testing.T) {
	c := claims.Build(identity(), roles.Set{}, "", exp)

	assert.NotNil(t, c.Roles())
	assert.Empty(t, c.Roles())
}

func TestIdentity_Validate(t *testing.T) {
	require.NoError(t, identity().Validate())

	err := claims.Identity{Name: "Alice", Secret: " "}.Validate()
	require.ErrorIs(t, err, domain.ErrMissingRequiredField)

	var fields domain.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "company")
	assert.NotContains(t, fields, "name")
	assert.NotContains(t, fields, "secret")
}
