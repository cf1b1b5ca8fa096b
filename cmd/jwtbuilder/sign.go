package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/jwt-builder/internal/bootstrap"
	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/config"
	"github.com/spec-kit/jwt-builder/internal/domain"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/service"
)

type signOptions struct {
	name        string
	company     string
	secret      string
	roles       []string
	exp         string
	aud         string
	url         string
	catalogPath string
	preview     bool
}

func newSignCmd() *cobra.Command {
	opts := &signOptions{}
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token from the given identity and roles",
		Long: `
Signs an HS256 token. Each --role is table[:role[:subrole]] and must exist in
the catalog. Repeated roles are kept once; the most recent comes first.

Usage:
  $ jwtbuilder sign --name Alice --company Acme --role orders:viewer --role orders:admin --exp 30d
  $ jwtbuilder sign --name Alice --company Acme --url 'https://builder.local/#s3cr3t'
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSign(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "name claim")
	flags.StringVar(&opts.company, "company", "", "company claim")
	flags.StringVar(&opts.secret, "secret", "", "HMAC signing secret")
	flags.StringArrayVar(&opts.roles, "role", nil, "role as table[:role[:subrole]], repeatable")
	flags.StringVar(&opts.exp, "exp", expiry.Default, "expiry token (1y or 30d)")
	flags.StringVar(&opts.aud, "aud", "", "audience claim, omitted when empty")
	flags.StringVar(&opts.url, "url", "", "URL whose fragment carries the signing secret")
	flags.StringVar(&opts.catalogPath, "catalog", "", "JSON catalog file, defaults to the bundled catalog")
	flags.BoolVar(&opts.preview, "preview", false, "print the decoded header and payload after the token")
	return cmd
}

func runSign(cmd *cobra.Command, opts *signOptions) error {
	selections := make([]catalog.Selection, 0, len(opts.roles))
	for _, raw := range opts.roles {
		sel, err := parseRoleFlag(raw)
		if err != nil {
			return err
		}
		selections = append(selections, sel)
	}

	cat := catalog.Default()
	if opts.catalogPath != "" {
		var err error
		if cat, err = catalog.LoadFile(opts.catalogPath); err != nil {
			return err
		}
	}

	seeded := seedSecret(opts.url)

	builder := service.NewBuilderService(config.BuilderConfig{DefaultExpiry: expiry.Default}, service.BuilderDependencies{
		Catalog:      cat,
		Logger:       zap.NewNop(),
		SeededSecret: seeded,
	})

	issued, err := builder.Issue(cmd.Context(), service.Form{
		Identity:   claims.Identity{Name: opts.name, Company: opts.company, Secret: opts.secret},
		Selections: selections,
		Audience:   opts.aud,
		Expiry:     opts.exp,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, issued.Token)
	if opts.preview {
		return printJSON(out, map[string]any{
			"header":  issued.Preview.Header,
			"payload": issued.Preview.Payload,
		})
	}
	return nil
}

// parseRoleFlag splits table[:role[:subrole]].
func parseRoleFlag(raw string) (catalog.Selection, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return catalog.Selection{}, fmt.Errorf("role %q: expected table[:role[:subrole]]: %w", raw, domain.ErrUnknownSelection)
	}
	var sel catalog.Selection
	sel.Table = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		sel.Role = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		sel.SubRole = strings.TrimSpace(parts[2])
	}
	if sel.Table == "" {
		return catalog.Selection{}, fmt.Errorf("role %q: table: %w", raw, domain.ErrMissingRequiredField)
	}
	return sel, nil
}

// seedSecret reads the secret from the URL fragment when a URL is given,
// otherwise from the environment. Either carrier is cleared after reading.
func seedSecret(rawURL string) string {
	if rawURL != "" {
		return bootstrap.New(bootstrap.NewURLCarrier(rawURL)).Seed()
	}
	return bootstrap.New(bootstrap.EnvCarrier{Key: defaultSecretEnv}).Seed()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
