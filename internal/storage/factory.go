package storage

import (
	"context"
	"fmt"
	"log"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string
	// AutoMigrate runs gorm AutoMigrate on open. Disable it when the schema
	// is managed with the migrate command.
	AutoMigrate bool
}

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		log.Printf("storage: using in-memory backend")
		return NewMemory(), nil

	case "sqlite", "postgres":
		log.Printf("storage: using gorm driver=%s", drv)
		st, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, fmt.Errorf("storage migrate: %w", err)
			}
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage ping: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}
