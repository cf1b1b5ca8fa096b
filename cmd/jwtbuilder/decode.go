package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/jwt-builder/internal/token"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [token|-]",
		Short: "Print the header and payload of a token without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := tokenArg(cmd, args[0])
			if err != nil {
				return err
			}
			decoded, err := token.NewSigner().Decode(raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"header":  decoded.Header,
				"payload": decoded.Payload,
			})
		},
	}
}

// tokenArg returns arg, or the first line of stdin when arg is "-".
func tokenArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return strings.TrimSpace(arg), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read token from stdin: %w", err)
		}
		return "", errors.New("no token on stdin")
	}
	return line, nil
}
