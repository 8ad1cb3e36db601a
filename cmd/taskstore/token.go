package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/girmesh03/Task-Manager-sub001/auth"
	"github.com/girmesh03/Task-Manager-sub001/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		roles   []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin health endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cmd.Context(), path, nil)
			if err != nil {
				return err
			}
			if cfg.Admin.JWTSecret == "" {
				return errors.New("admin.jwt_secret is not set")
			}
			v, err := auth.NewVerifier(auth.VerifierConfig{Secret: []byte(cfg.Admin.JWTSecret)})
			if err != nil {
				return err
			}
			token, err := v.Sign(subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role claim, repeatable")
	return cmd
}
