package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spec-kit/jwt-builder/internal/domain"
)

//go:embed default_catalog.json
var defaultCatalog []byte

// SubRoleGroup lists the sub-roles available under a role.
type SubRoleGroup struct {
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

// Data is the wire shape of a role taxonomy.
type Data struct {
	Tables   []string       `json:"tables"`
	Roles    []string       `json:"roles"`
	SubRoles []SubRoleGroup `json:"subroles"`
}

// Selection is a (table, role, sub-role) pick from the catalog.
type Selection struct {
	Table   string
	Role    string
	SubRole string
}

// Catalog is an immutable taxonomy of tables, roles and sub-roles.
type Catalog struct {
	data     Data
	subRoles map[string][]string
}

// New builds a catalog from data. The input is copied.
func New(data Data) *Catalog {
	c := &Catalog{
		data: Data{
			Tables:   slices.Clone(data.Tables),
			Roles:    slices.Clone(data.Roles),
			SubRoles: make([]SubRoleGroup, 0, len(data.SubRoles)),
		},
		subRoles: make(map[string][]string, len(data.SubRoles)),
	}
	for _, group := range data.SubRoles {
		// first group wins for a repeated role
		if _, seen := c.subRoles[group.Role]; seen {
			continue
		}
		roles := slices.Clone(group.Roles)
		c.subRoles[group.Role] = roles
		c.data.SubRoles = append(c.data.SubRoles, SubRoleGroup{Role: group.Role, Roles: roles})
	}
	return c
}

// Parse decodes a JSON taxonomy.
func Parse(raw []byte) (*Catalog, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(data.Tables) == 0 {
		return nil, fmt.Errorf("decode catalog: no tables defined")
	}
	return New(data), nil
}

// LoadFile reads a JSON taxonomy from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Tables returns the table names in catalog order.
func (c *Catalog) Tables() []string {
	return slices.Clone(c.data.Tables)
}

// Roles returns the role names in catalog order.
func (c *Catalog) Roles() []string {
	return slices.Clone(c.data.Roles)
}

// SubRolesFor returns the sub-roles offered for role, and whether role has any.
func (c *Catalog) SubRolesFor(role string) ([]string, bool) {
	roles, ok := c.subRoles[role]
	if !ok {
		return nil, false
	}
	return slices.Clone(roles), true
}

// Data returns a copy of the taxonomy in its wire shape.
func (c *Catalog) Data() Data {
	out := Data{
		Tables:   c.Tables(),
		Roles:    c.Roles(),
		SubRoles: make([]SubRoleGroup, 0, len(c.data.SubRoles)),
	}
	for _, group := range c.data.SubRoles {
		out.SubRoles = append(out.SubRoles, SubRoleGroup{Role: group.Role, Roles: slices.Clone(group.Roles)})
	}
	return out
}

// Validate checks that every non-empty part of sel is offered by the catalog.
// A sub-role is only valid under a role that lists it.
func (c *Catalog) Validate(sel Selection) error {
	if sel.Table == "" {
		return fmt.Errorf("table: %w", domain.ErrMissingRequiredField)
	}
	if !slices.Contains(c.data.Tables, sel.Table) {
		return fmt.Errorf("table %q: %w", sel.Table, domain.ErrUnknownSelection)
	}
	if sel.Role != "" && !slices.Contains(c.data.Roles, sel.Role) {
		return fmt.Errorf("role %q: %w", sel.Role, domain.ErrUnknownSelection)
	}
	if sel.SubRole == "" {
		return nil
	}
	if sel.Role == "" {
		return fmt.Errorf("sub-role %q without role: %w", sel.SubRole, domain.ErrUnknownSelection)
	}
	if !slices.Contains(c.subRoles[sel.Role], sel.SubRole) {
		return fmt.Errorf("sub-role %q for role %q: %w", sel.SubRole, sel.Role, domain.ErrUnknownSelection)
	}
	return nil
}
