package storage

import "time"

// SettingRefreshSchedule overrides the configured dataset refresh schedule.
const SettingRefreshSchedule = "refresh_schedule"

// DatasetSnapshot is a stored copy of a loaded fee dataset, keyed by the
// source it was loaded from.
type DatasetSnapshot struct {
	ID       uint      `json:"-" gorm:"primaryKey;column:id"`
	Source   string    `json:"source" gorm:"index;column:source"`
	Checksum string    `json:"checksum" gorm:"column:checksum"`
	Payload  []byte    `json:"payload" gorm:"column:payload"`
	LoadedAt time.Time `json:"loaded_at" gorm:"column:loaded_at"`
}

// Setting is a key/value runtime setting.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last run of a background job.
type ScheduledJob struct {
	Name           string    `json:"name" gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `json:"last_run_at" gorm:"column:last_run_at"`
	LastDurationMs int64     `json:"last_duration_ms" gorm:"column:last_duration_ms"`
	LastSuccess    int       `json:"last_success" gorm:"column:last_success"`
	LastError      string    `json:"last_error" gorm:"column:last_error"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	Name       string     `json:"name" gorm:"column:name"`
	TokenHash  string     `json:"-" gorm:"uniqueIndex;column:token_hash"`
	Role       string     `json:"role" gorm:"column:role"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// CasbinRule represents a policy rule for RBAC.
type CasbinRule struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `json:"ptype" gorm:"column:ptype"`
	V0    string `json:"v0" gorm:"column:v0"`
	V1    string `json:"v1" gorm:"column:v1"`
	V2    string `json:"v2" gorm:"column:v2"`
	V3    string `json:"v3" gorm:"column:v3"`
	V4    string `json:"v4" gorm:"column:v4"`
	V5    string `json:"v5" gorm:"column:v5"`
}
