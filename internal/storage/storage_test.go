package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// exercise runs the behaviour every backend must share.
func exercise(t *testing.T, st Storage) {
	t.Helper()
	ctx := context.Background()

	snap, err := st.GetDatasetSnapshot(ctx, "fees.json")
	if err != nil {
		t.Fatalf("GetDatasetSnapshot failed: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot, got %+v", snap)
	}

	older := DatasetSnapshot{Source: "fees.json", Checksum: "a", Payload: []byte(`{}`), LoadedAt: time.Now().Add(-time.Hour)}
	newer := DatasetSnapshot{Source: "fees.json", Checksum: "b", Payload: []byte(`{"Meal_Plan":[]}`), LoadedAt: time.Now()}
	for _, s := range []DatasetSnapshot{older, newer} {
		if err := st.SaveDatasetSnapshot(ctx, s); err != nil {
			t.Fatalf("SaveDatasetSnapshot failed: %v", err)
		}
	}
	snap, err = st.GetDatasetSnapshot(ctx, "fees.json")
	if err != nil || snap == nil {
		t.Fatalf("expected snapshot, got %v, %v", snap, err)
	}
	if snap.Checksum != "b" || string(snap.Payload) != `{"Meal_Plan":[]}` {
		t.Errorf("expected latest snapshot, got %+v", snap)
	}

	if v, err := st.GetSetting(ctx, SettingRefreshSchedule); err != nil || v != "" {
		t.Errorf("expected empty setting, got %q, %v", v, err)
	}
	if err := st.SetSetting(ctx, SettingRefreshSchedule, "3600"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := st.SetSetting(ctx, SettingRefreshSchedule, "0 3 * * *"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	if v, _ := st.GetSetting(ctx, SettingRefreshSchedule); v != "0 3 * * *" {
		t.Errorf("unexpected setting: %q", v)
	}

	tok := Token{ID: "t1", Name: "ci", TokenHash: "abc", Role: "admin", CreatedAt: time.Now()}
	if err := st.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	got, err := st.GetTokenByHash(ctx, "abc")
	if err != nil || got == nil || got.ID != "t1" {
		t.Fatalf("GetTokenByHash: got %+v, %v", got, err)
	}
	if err := st.UpdateTokenLastUsed(ctx, "t1"); err != nil {
		t.Fatalf("UpdateTokenLastUsed failed: %v", err)
	}
	list, _ := st.ListTokens(ctx)
	if len(list) != 1 || list[0].LastUsedAt == nil {
		t.Errorf("expected one used token, got %+v", list)
	}
	if err := st.DeleteToken(ctx, "t1"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if got, _ := st.GetTokenByHash(ctx, "abc"); got != nil {
		t.Errorf("expected deleted token, got %+v", got)
	}

	rule := CasbinRule{PType: "p", V0: "admin", V1: "*", V2: "*"}
	if err := st.AddCasbinRule(ctx, rule); err != nil {
		t.Fatalf("AddCasbinRule failed: %v", err)
	}
	if err := st.AddCasbinRule(ctx, CasbinRule{PType: "p", V0: "viewer", V1: "dataset", V2: "read"}); err != nil {
		t.Fatalf("AddCasbinRule failed: %v", err)
	}
	if err := st.RemoveCasbinRule(ctx, rule); err != nil {
		t.Fatalf("RemoveCasbinRule failed: %v", err)
	}
	rules, _ := st.LoadCasbinRules(ctx)
	if len(rules) != 1 || rules[0].V0 != "viewer" {
		t.Errorf("unexpected rules: %+v", rules)
	}

	started := time.Now()
	if err := st.UpdateScheduledJob(ctx, "dataset_refresh", started, 1500*time.Millisecond, false, "boom"); err != nil {
		t.Fatalf("UpdateScheduledJob failed: %v", err)
	}
	if err := st.UpdateScheduledJob(ctx, "dataset_refresh", started, 2*time.Second, true, ""); err != nil {
		t.Fatalf("UpdateScheduledJob overwrite failed: %v", err)
	}
	job, err := st.GetScheduledJob(ctx, "dataset_refresh")
	if err != nil || job == nil {
		t.Fatalf("GetScheduledJob: %+v, %v", job, err)
	}
	if job.LastSuccess != 1 || job.LastDurationMs != 2000 || job.LastError != "" {
		t.Errorf("unexpected job row: %+v", job)
	}

	if err := st.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	exercise(t, m)
}

func TestMemoryStorage_AdvisoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, _ := m.AcquireAdvisoryLock(ctx, 42)
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	if ok, _ := m.AcquireAdvisoryLock(ctx, 42); ok {
		t.Fatalf("expected second acquire to fail")
	}
	if ok, _ := m.ReleaseAdvisoryLock(ctx, 42); !ok {
		t.Fatalf("expected release of held lock")
	}
	if ok, _ := m.AcquireAdvisoryLock(ctx, 42); !ok {
		t.Fatalf("expected acquire after release")
	}
}

func TestGormStorage_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "costcalc.db")
	st, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn, AutoMigrate: true})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer st.Close()
	exercise(t, st)

	ok, err := st.AcquireAdvisoryLock(context.Background(), 1)
	if err != nil || !ok {
		t.Errorf("expected sqlite lock to be granted, got %v, %v", ok, err)
	}

	gs, ok := st.(*GormStorage)
	if !ok {
		t.Fatalf("expected *GormStorage, got %T", st)
	}
	if driver, _, err := gs.Stats(); err != nil || driver != "sqlite" {
		t.Errorf("unexpected stats: %q, %v", driver, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
