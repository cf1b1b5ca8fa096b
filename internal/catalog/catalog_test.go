package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/domain"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(catalog.Data{
		Tables: []string{"orders", "users"},
		Roles:  []string{"viewer", "admin"},
		SubRoles: []catalog.SubRoleGroup{
			{Role: "admin", Roles: []string{"super"}},
		},
	})
}

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()

	assert.NotEmpty(t, c.Tables())
	assert.NotEmpty(t, c.Roles())
	subs, ok := c.SubRolesFor("admin")
	assert.True(t, ok)
	assert.Contains(t, subs, "super")
}

func TestCatalog_SubRolesFor(t *testing.T) {
	c := testCatalog()

	subs, ok := c.SubRolesFor("admin")
	require.True(t, ok)
	assert.Equal(t, []string{"super"}, subs)

	_, ok = c.SubRolesFor("viewer")
	assert.False(t, ok)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := testCatalog()

	tables := c.Tables()
	tables[0] = "mutated"
	subs, _ := c.SubRolesFor("admin")
	subs[0] = "mutated"

	assert.Equal(t, "orders", c.Tables()[0])
	again, _ := c.SubRolesFor("admin")
	assert.Equal(t, "super", again[0])
}

func TestCatalog_Validate(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name    string
		sel     catalog.Selection
		wantErr error
	}{
		{name: "table only", sel: catalog.Selection{Table: "orders"}},
		{name: "table and role", sel: catalog.Selection{Table: "orders", Role: "viewer"}},
		{name: "full triple", sel: catalog.Selection{Table: "users", Role: "admin", SubRole: "super"}},
		{name: "empty table", sel: catalog.Selection{}, wantErr: domain.ErrMissingRequiredField},
		{name: "unknown table", sel: catalog.Selection{Table: "payments"}, wantErr: domain.ErrUnknownSelection},
		{name: "unknown role", sel: catalog.Selection{Table: "orders", Role: "owner"}, wantErr: domain.ErrUnknownSelection},
		{name: "sub-role without role", sel: catalog.Selection{Table: "orders", SubRole: "super"}, wantErr: domain.ErrUnknownSelection},
		{name: "sub-role not listed", sel: catalog.Selection{Table: "orders", Role: "viewer", SubRole: "super"}, wantErr: domain.ErrUnknownSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.sel)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	raw := `{"tables":["orders"],"roles":["viewer"],"subroles":[{"role":"viewer","roles":["limited"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"orders"}, c.Tables())
	data := c.Data()
	require.Len(t, data.SubRoles, 1)
	assert.Equal(t, "viewer", data.SubRoles[0].Role)
}

func TestParse_RejectsEmptyTables(t *testing.T) {
	_, err := catalog.Parse([]byte(`{"tables":[],"roles":["viewer"]}`))
	assert.Error(t, err)

	_, err = catalog.Parse([]byte(`not json`))
	assert.Error(t, err)
}
