package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/config"
	"github.com/spec-kit/jwt-builder/internal/persistence"
	"github.com/spec-kit/jwt-builder/internal/repository"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or publish the role catalog",
	}
	cmd.AddCommand(newCatalogShowCmd(), newCatalogPushCmd())
	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := catalog.Default()
			if path != "" {
				var err error
				if cat, err = catalog.LoadFile(path); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), cat.Data())
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "JSON catalog file, defaults to the bundled catalog")
	return cmd
}

func newCatalogPushCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Replace the postgres catalog with a JSON catalog",
		Long: `
Replaces catalog_tables, catalog_roles and catalog_subroles in the database
named by POSTGRES_DSN. Migrations are applied first when enabled.

Usage:
  $ POSTGRES_DSN=postgres://... jwtbuilder catalog push --file catalog.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := catalog.Default()
			if path != "" {
				var err error
				if cat, err = catalog.LoadFile(path); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zap.NewNop()
			ctx := cmd.Context()

			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			if !pg.Enabled() {
				return errors.New("POSTGRES_DSN is required")
			}
			if cfg.Postgres.RunMigrations {
				if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
					return err
				}
			}

			if err := repository.NewCatalogRepository(pg.Pool).Replace(ctx, cat.Data()); err != nil {
				return fmt.Errorf("replace catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog replaced: %d tables, %d roles\n", len(cat.Tables()), len(cat.Roles()))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "JSON catalog file, defaults to the bundled catalog")
	return cmd
}
