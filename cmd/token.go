package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for the --user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		userID := userFlag(cmd)
		profile, ok, err := auth.LoadProfile(ctx, st, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if !ok {
			profile = auth.Profile{UserID: userID}
		}

		tok, err := auth.IssueToken([]byte(cfg.JWTSecret), profile, ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
