package migrate

import (
	"context"
	"path/filepath"
	"testing"
)

func TestUpDown_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "migrate.db")

	if err := Up(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	v, err := Version(ctx, "sqlite", dsn)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected schema version 2, got %d", v)
	}

	if err := Down(ctx, "sqlite", dsn); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
	if v, _ := Version(ctx, "sqlite", dsn); v != 1 {
		t.Errorf("expected schema version 1 after down, got %d", v)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if err := Up(context.Background(), "oracle", ""); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
