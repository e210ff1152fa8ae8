package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/auth"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign a bearer token for AUTH_MODE=jwt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		if tokenTTL <= 0 {
			return errors.New("--ttl must be > 0")
		}
		tok, err := auth.NewJWTAuthProvider(cfg.JWTSecret, nil, internal.NewNopLogger()).Sign(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
