package main

import (
	"github.com/spf13/cobra"
)

const defaultSecretEnv = "JWT_BUILDER_SECRET"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jwtbuilder",
		Short:         "Compose, sign and inspect HS256 tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `
Builds HS256 tokens carrying name, company, roles, exp and an optional aud.

Roles are picked from a catalog of tables, roles and sub-roles and composed
as table_role_subrole. The signing secret is read from --secret, from the
fragment of --url, or from the ` + defaultSecretEnv + ` environment variable.
`,
	}

	root.AddCommand(
		newSignCmd(),
		newDecodeCmd(),
		newVerifyCmd(),
		newCatalogCmd(),
	)
	return root
}
