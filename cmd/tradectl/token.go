package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/config"
)

func tokenCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id, signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is required")
			}

			token, err := auth.NewTokenExtractor(cfg.Auth).IssueToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
