package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newAdminTokenCommand() *cobra.Command {
	var (
		token string
		cost  int
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Generate the admin bearer token and its bcrypt hash",
		Long: `Generate a random admin bearer token (or hash one you provide) and print the
bcrypt hash to put in admin.token_hash or ADMIN_TOKEN_HASH.

Only the hash is stored by the server. Keep the token itself in your password manager;
it is required to call /rpc/leads.list and /rpc/leads.get.

Examples:
  # Generate a new token
  solarsite admin-token

  # Hash an existing token
  solarsite admin-token --token "my-existing-token"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateAdminToken(cmd, token, cost)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token to hash (a random one is generated when empty)")
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}

func generateAdminToken(cmd *cobra.Command, token string, cost int) error {
	generated := token == ""
	if generated {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		token = base64.RawURLEncoding.EncodeToString(buf)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	out := cmd.OutOrStdout()
	if generated {
		fmt.Fprintf(out, "Admin token:   %s\n", token)
	}
	fmt.Fprintf(out, "Token hash:    %s\n", hash)
	fmt.Fprintf(out, "\nConfigure the server with:\n")
	fmt.Fprintf(out, "  Config file:    admin:\n                    token_hash: \"%s\"\n", hash)
	fmt.Fprintf(out, "  Environment:    export ADMIN_TOKEN_HASH='%s'\n", hash)
	return nil
}
