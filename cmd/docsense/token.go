package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docsense/internal/auth"
	"docsense/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the processing routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			issuer, err := auth.NewTokenIssuer(cfg.Auth)
			if err != nil {
				return fmt.Errorf("%w (set DOCSENSE_AUTH_SECRET)", err)
			}
			token, expiresAt, err := issuer.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
