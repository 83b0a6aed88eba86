package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/costcalc/internal/auth"
)

var (
	tokenName    string
	tokenRole    string
	tokenExpires string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an API token; the raw value is printed once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !auth.ValidRole(tokenRole) {
			return fmt.Errorf("unknown role %q (use %s or %s)", tokenRole, auth.RoleAdmin, auth.RoleViewer)
		}
		expiresAt, err := auth.ParseExpiry(tokenExpires, time.Now())
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
			return fmt.Errorf("tokens need persistent storage; configure a sqlite or postgres driver")
		}

		ctx := cmd.Context()
		st, err := openStorage(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer st.Close()

		authSvc, err := auth.NewService(st)
		if err != nil {
			return err
		}
		t, raw, err := authSvc.CreateToken(ctx, tokenName, tokenRole, expiresAt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:      %s\n", t.ID)
		fmt.Fprintf(out, "name:    %s\n", t.Name)
		fmt.Fprintf(out, "role:    %s\n", t.Role)
		if t.ExpiresAt != nil {
			fmt.Fprintf(out, "expires: %s\n", t.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "token:   %s\n", raw)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "", "token name")
	tokenCreateCmd.Flags().StringVar(&tokenRole, "role", auth.RoleViewer, "admin or viewer")
	tokenCreateCmd.Flags().StringVar(&tokenExpires, "expires", "never", "lifetime such as 30d, 2w, 12h or a date")
	_ = tokenCreateCmd.MarkFlagRequired("name")

	tokenCmd.AddCommand(tokenCreateCmd)
	rootCmd.AddCommand(tokenCmd)
}
