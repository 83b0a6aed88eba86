// Package config resolves service settings from defaults, an optional YAML
// file, an optional .env file and COSTCALC_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bher20/costcalc/internal/cron"
)

const (
	defaultListenAddr = ":8080"
	defaultDataset    = "data.json"
	envPrefix         = "COSTCALC_"
)

type StorageConfig struct {
	// Driver is memory, sqlite or postgres.
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AlertConfig struct {
	WebhookURL  string `yaml:"webhook_url"`
	WebhookType string `yaml:"webhook_type"`
	MinFailures int    `yaml:"min_failures"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	// DatasetSource is a .json/.xlsx path or an http(s) URL.
	DatasetSource string `yaml:"dataset_source"`
	// RefreshSchedule is integer seconds or a cron expression. Empty
	// disables scheduled refresh.
	RefreshSchedule string        `yaml:"refresh_schedule"`
	Storage         StorageConfig `yaml:"storage"`
	Alerts          AlertConfig   `yaml:"alerts"`
	// BootstrapToken, when set, is stored as an admin API token at start-up.
	BootstrapToken string `yaml:"bootstrap_token"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ListenAddr:    defaultListenAddr,
		DatasetSource: defaultDataset,
		Storage: StorageConfig{
			Driver:      "memory",
			AutoMigrate: true,
		},
		Alerts: AlertConfig{MinFailures: 1},
	}
}

// Load resolves the configuration. path names an optional YAML file and
// envFile an optional dotenv file; a missing envFile is ignored, a missing
// YAML file is an error when one was named.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if envFile != "" {
		// Real environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("DATASET", &cfg.DatasetSource)
	str("REFRESH_SCHEDULE", &cfg.RefreshSchedule)
	str("DB_DRIVER", &cfg.Storage.Driver)
	str("DB_DSN", &cfg.Storage.DSN)
	str("ALERT_WEBHOOK_URL", &cfg.Alerts.WebhookURL)
	str("ALERT_WEBHOOK_TYPE", &cfg.Alerts.WebhookType)
	str("BOOTSTRAP_TOKEN", &cfg.BootstrapToken)

	if v, ok := os.LookupEnv(envPrefix + "AUTO_MIGRATE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sAUTO_MIGRATE: %w", envPrefix, err)
		}
		cfg.Storage.AutoMigrate = b
	}
	if v, ok := os.LookupEnv(envPrefix + "ALERT_MIN_FAILURES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sALERT_MIN_FAILURES: %w", envPrefix, err)
		}
		cfg.Alerts.MinFailures = n
	}
	return nil
}

// Validate checks the settings that would otherwise fail later at runtime.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "", "memory":
	case "sqlite", "postgres":
		if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
			return errors.New("config: postgres storage needs a DSN")
		}
	default:
		return fmt.Errorf("config: unsupported storage driver %q", c.Storage.Driver)
	}
	if c.RefreshSchedule != "" {
		if err := cron.ValidateSchedule(c.RefreshSchedule); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Alerts.MinFailures < 0 {
		return fmt.Errorf("config: alert min_failures must not be negative, got %d", c.Alerts.MinFailures)
	}
	if c.DatasetSource == "" {
		log.Print("config: warning: no dataset source configured")
	}
	return nil
}
