package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jwt-builder/internal/catalog"
)

// CatalogRepository reads and replaces the role taxonomy stored in postgres.
type CatalogRepository interface {
	Load(ctx context.Context) (catalog.Data, error)
	Replace(ctx context.Context, data catalog.Data) error
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository builds the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

var errNoPool = errors.New("catalog repository: postgres not configured")

func (r *catalogRepository) Load(ctx context.Context) (catalog.Data, error) {
	if r.pool == nil {
		return catalog.Data{}, errNoPool
	}

	var data catalog.Data
	var err error
	if data.Tables, err = r.names(ctx, `SELECT name FROM catalog_tables ORDER BY position, name`); err != nil {
		return catalog.Data{}, err
	}
	if data.Roles, err = r.names(ctx, `SELECT name FROM catalog_roles ORDER BY position, name`); err != nil {
		return catalog.Data{}, err
	}

	const query = `
        SELECT s.role, s.name
        FROM catalog_subroles s
        JOIN catalog_roles r ON r.name = s.role
        ORDER BY r.position, s.role, s.position, s.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return catalog.Data{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var role, name string
		if err := rows.Scan(&role, &name); err != nil {
			return catalog.Data{}, err
		}
		n := len(data.SubRoles)
		if n == 0 || data.SubRoles[n-1].Role != role {
			data.SubRoles = append(data.SubRoles, catalog.SubRoleGroup{Role: role})
			n++
		}
		data.SubRoles[n-1].Roles = append(data.SubRoles[n-1].Roles, name)
	}
	return data, rows.Err()
}

func (r *catalogRepository) names(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

// Replace swaps the stored taxonomy for data in one transaction.
func (r *catalogRepository) Replace(ctx context.Context, data catalog.Data) error {
	if r.pool == nil {
		return errNoPool
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_subroles`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_roles`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_tables`); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, name := range data.Tables {
			batch.Queue(`INSERT INTO catalog_tables (name, position) VALUES ($1,$2)`, name, i)
		}
		for i, name := range data.Roles {
			batch.Queue(`INSERT INTO catalog_roles (name, position) VALUES ($1,$2)`, name, i)
		}
		for _, group := range data.SubRoles {
			for i, name := range group.Roles {
				batch.Queue(`INSERT INTO catalog_subroles (role, name, position) VALUES ($1,$2,$3)`, group.Role, name, i)
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
