package main

import (
	"fmt"
	"time"

	"kind-match/internal/api/rest"
	"kind-match/internal/models"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue an HTTP API bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}

		var userID int64
		if _, err := fmt.Sscan(args[0], &userID); err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}

		roleFlag, _ := cmd.Flags().GetString("role")
		role := models.Role(roleFlag)
		if !role.Valid() {
			return fmt.Errorf("invalid role %q", roleFlag)
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := rest.IssueToken(cfg.JWTSecret, userID, role, ttl)
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("role", string(models.RoleWorker), "role claim: worker, employer or admin")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
