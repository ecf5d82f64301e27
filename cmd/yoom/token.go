package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/model"
)

// newTokenCmd mints a session token for local development, where no hosted
// identity provider sets the session cookie.
func newTokenCmd() *cobra.Command {
	var (
		user   model.User
		secret string
		issuer string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return errors.New("--secret or YOOM_AUTH_JWT_SECRET is required")
			}
			token, err := auth.MintToken(secret, issuer, user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&user.ID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&user.Name, "name", "", "display name")
	cmd.Flags().StringVar(&user.Email, "email", "", "email address")
	cmd.Flags().StringVar(&user.ImageURL, "image-url", "", "avatar URL")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("YOOM_AUTH_JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", os.Getenv("YOOM_AUTH_ISSUER"), "token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
