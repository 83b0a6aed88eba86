package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	snaps    map[string]DatasetSnapshot
	settings map[string]string
	tokens   map[string]Token
	rules    []CasbinRule
	jobs     map[string]ScheduledJob
	locks    map[int64]bool
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		snaps:    make(map[string]DatasetSnapshot),
		settings: make(map[string]string),
		tokens:   make(map[string]Token),
		jobs:     make(map[string]ScheduledJob),
		locks:    make(map[int64]bool),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) GetDatasetSnapshot(ctx context.Context, source string) (*DatasetSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[source]
	if !ok {
		return nil, nil
	}
	cp := s
	cp.Payload = append([]byte(nil), s.Payload...)
	return &cp, nil
}

func (m *MemoryStorage) SaveDatasetSnapshot(ctx context.Context, snap DatasetSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Payload = append([]byte(nil), snap.Payload...)
	m.snaps[snap.Source] = snap
	return nil
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListTokens(ctx context.Context) ([]Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	t.LastUsedAt = &now
	m.tokens[id] = t
	return nil
}

func (m *MemoryStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]CasbinRule(nil), m.rules...), nil
}

func (m *MemoryStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule.ID = uint(len(m.rules) + 1)
	m.rules = append(m.rules, rule)
	return nil
}

func (m *MemoryStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rules[:0]
	for _, r := range m.rules {
		r2 := r
		r2.ID = 0
		if r2 == rule {
			continue
		}
		kept = append(kept, r)
	}
	m.rules = kept
	return nil
}

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := m.locks[key]
	delete(m.locks, key)
	return held, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}

func (m *MemoryStorage) GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	if !ok {
		return nil, nil
	}
	return &j, nil
}
