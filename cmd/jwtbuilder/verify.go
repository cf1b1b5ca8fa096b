package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/jwt-builder/internal/bootstrap"
	"github.com/spec-kit/jwt-builder/internal/token"
)

func newVerifyCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "verify [token|-]",
		Short: "Check a token's signature and expiry and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := tokenArg(cmd, args[0])
			if err != nil {
				return err
			}
			if secret == "" {
				secret = bootstrap.New(bootstrap.EnvCarrier{Key: defaultSecretEnv}).Seed()
			}

			verified, err := token.NewSigner().Verify(raw, secret)
			if err != nil {
				return err
			}

			out := map[string]any{
				"name":    verified.Name(),
				"company": verified.Company(),
				"roles":   verified.Roles(),
				"exp":     verified.ExpiresAt().Format(time.RFC3339),
			}
			if aud, ok := verified.Audience(); ok {
				out["aud"] = aud
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret, defaults to $"+defaultSecretEnv)
	return cmd
}
