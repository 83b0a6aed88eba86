// Command costcalc serves and computes cost-of-attendance estimates.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bher20/costcalc/internal/config"
	"github.com/bher20/costcalc/internal/migrate"
	"github.com/bher20/costcalc/internal/storage"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "costcalc",
	Short: "University cost-of-attendance estimator",
	Long: `costcalc estimates the yearly cost of attending a program from a
published tuition, housing and meal-plan dataset.

Example Usage:
  costcalc serve --config costcalc.yaml
  costcalc estimate --data fees.json --program "Computer Science" --major General
  costcalc token create --name ops --role admin`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a dotenv file (ignored when missing)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration named by the persistent flags.
func loadConfig() (config.Config, error) {
	return config.Load(cfgFile, envFile)
}

// openStorage opens the configured backend. A sqlite backend without a DSN
// uses the default database file.
func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	dsn := cfg.Storage.DSN
	if cfg.Storage.Driver == "sqlite" && dsn == "" {
		dsn = migrate.DefaultSQLiteDSN
	}
	return storage.Open(ctx, storage.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         dsn,
		AutoMigrate: cfg.Storage.AutoMigrate,
	})
}
