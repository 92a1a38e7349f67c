package main

import (
	"encoding/base64"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	var bits int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate token signing keys",
		Long: `Generate an RSA key pair for access tokens and another for refresh
tokens, printed as base64 encoded PEM environment assignments.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeygen(cmd, bits)
		},
	}
	cmd.Flags().IntVar(&bits, "bits", cryptox.MinRSABits, "RSA modulus size")

	return cmd
}

func runKeygen(cmd *cobra.Command, bits int) error {
	for _, role := range []string{"ACCESS", "REFRESH"} {
		priv, pub, err := cryptox.GenerateRSAKeyPair(bits)
		if err != nil {
			return err
		}
		cmd.Printf("JWT_%s_TOKEN_PRIVATE_KEY=%s\n", role, base64.StdEncoding.EncodeToString(priv))
		cmd.Printf("JWT_%s_TOKEN_PUBLIC_KEY=%s\n", role, base64.StdEncoding.EncodeToString(pub))
	}
	return nil
}
