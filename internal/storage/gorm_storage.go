package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStorage is the relational Storage implementation for sqlite and
// postgres.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&DatasetSnapshot{},
		&Setting{},
		&Token{},
		&CasbinRule{},
		&ScheduledJob{},
	)
}

// first loads the first row matching query into dest, reporting false
// when there is none.
func (s *GormStorage) first(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	result := s.db.WithContext(ctx).Where(query, args...).First(dest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	return true, nil
}

// Dataset snapshots

func (s *GormStorage) GetDatasetSnapshot(ctx context.Context, source string) (*DatasetSnapshot, error) {
	var snap DatasetSnapshot
	result := s.db.WithContext(ctx).Order("loaded_at desc").First(&snap, "source = ?", source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) SaveDatasetSnapshot(ctx context.Context, snap DatasetSnapshot) error {
	return s.db.WithContext(ctx).Create(&snap).Error
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	ok, err := s.first(ctx, &setting, "key = ?", key)
	if err != nil || !ok {
		return "", err
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Tokens

func (s *GormStorage) CreateToken(ctx context.Context, token Token) error {
	return s.db.WithContext(ctx).Create(&token).Error
}

func (s *GormStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	var token Token
	ok, err := s.first(ctx, &token, "token_hash = ?", hash)
	if err != nil || !ok {
		return nil, err
	}
	return &token, nil
}

func (s *GormStorage) ListTokens(ctx context.Context) ([]Token, error) {
	var tokens []Token
	result := s.db.WithContext(ctx).Order("created_at").Find(&tokens)
	return tokens, result.Error
}

func (s *GormStorage) DeleteToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Token{}, "id = ?", id).Error
}

func (s *GormStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Token{}).Where("id = ?", id).Update("last_used_at", now).Error
}

// Casbin rules

func (s *GormStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	var rules []CasbinRule
	result := s.db.WithContext(ctx).Find(&rules)
	return rules, result.Error
}

func (s *GormStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Create(&rule).Error
}

func (s *GormStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Where(&rule).Delete(&CasbinRule{}).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports connection pool statistics for the metrics exporter.
func (s *GormStorage) Stats() (string, sql.DBStats, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return "", sql.DBStats{}, err
	}
	return s.db.Dialector.Name(), sqlDB.Stats(), nil
}

// Scheduled jobs & locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&ok).Error
		return ok, err
	}
	// sqlite is single-instance
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_advisory_unlock(?)", key).Scan(&ok).Error
		return ok, err
	}
	return true, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}

func (s *GormStorage) GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error) {
	var job ScheduledJob
	ok, err := s.first(ctx, &job, "name = ?", name)
	if err != nil || !ok {
		return nil, err
	}
	return &job, nil
}
