package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	auth "github.com/crazy0629/Projitt-HR-Management-sub001/internal/auth/middleware"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/rbac"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Mint a bearer token for a subject and role",
	Example: "  psychd token --sub 42 --role candidate\n  psychd token --sub recruiter-1 --role recruiter --ttl 1h",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, _ := cmd.Flags().GetString("sub")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if _, ok := rbac.RolePermissions[role]; !ok {
			return fmt.Errorf("unknown role %q", role)
		}
		cfg := loadConfig(cmd)
		tok, err := auth.NewAuthService(cfg.AuthHMACSecret).IssueJWTWithTTL(sub, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("sub", "", "token subject; candidates use their numeric candidate id")
	tokenCmd.Flags().String("role", "candidate", "role claim")
	tokenCmd.Flags().Duration("ttl", 8*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}
