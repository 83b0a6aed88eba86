package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for dataset snapshots, settings, job
// bookkeeping, API tokens and RBAC rules.
type Storage interface {
	// Dataset snapshots
	GetDatasetSnapshot(ctx context.Context, source string) (*DatasetSnapshot, error)
	SaveDatasetSnapshot(ctx context.Context, snap DatasetSnapshot) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Scheduled jobs and locking
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error
	GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error)

	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*GormStorage)(nil)
)
