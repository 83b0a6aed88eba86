package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/bher20/costcalc/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down|status",
	Short:     "Apply or inspect the SQL schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		driver, dsn := cfg.Storage.Driver, cfg.Storage.DSN
		switch driver {
		case "sqlite":
			if dsn == "" {
				dsn = migrate.DefaultSQLiteDSN
			}
		case "postgres":
		default:
			return fmt.Errorf("migrations need a sqlite or postgres storage driver, got %q", driver)
		}

		ctx := cmd.Context()
		switch args[0] {
		case "up":
			err = migrate.Up(ctx, driver, dsn)
		case "down":
			err = migrate.Down(ctx, driver, dsn)
		case "status":
			return migrate.Status(ctx, driver, dsn)
		}
		if err != nil {
			return err
		}
		v, err := migrate.Version(ctx, driver, dsn)
		if err != nil {
			return err
		}
		log.Printf("migrate: %s %s complete, schema version %d", driver, args[0], v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
