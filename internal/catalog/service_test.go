package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/estimator"
	"github.com/bher20/costcalc/internal/money"
	"github.com/bher20/costcalc/internal/storage"
)

func copySample(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "dataset", "testdata", "sample.json"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fees.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func csFilter() estimator.Filter {
	return estimator.Filter{
		Level:      estimator.LevelUndergraduate,
		Residency:  estimator.ResidencyDomestic,
		Province:   estimator.ProvinceOntario,
		Load:       "Full-Time",
		CohortYear: "2024-2025",
		Program:    "Computer Science",
		Major:      "General",
		MealPlan:   estimator.MealPlanNone,
	}
}

func TestCurrent_NotLoaded(t *testing.T) {
	svc := NewService(Config{Source: "missing.json"})
	if _, err := svc.Current(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := svc.Estimate(csFilter()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded from Estimate, got %v", err)
	}
}

func TestLoad_FromSource(t *testing.T) {
	svc := NewService(Config{Source: copySample(t)})

	snap, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Origin != OriginSource {
		t.Errorf("unexpected origin: %q", snap.Origin)
	}

	est, err := svc.Estimate(csFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := money.Format(est.GrandTotal); got != "$7,000.00" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestLoad_MissingSourceFails(t *testing.T) {
	svc := NewService(Config{Source: filepath.Join(t.TempDir(), "nope.json")})
	if _, err := svc.Load(context.Background()); !errors.Is(err, dataset.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoad_PrefersStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	path := copySample(t)

	first := NewServiceWithStorage(Config{Source: path}, st)
	snap, err := first.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	second := NewServiceWithStorage(Config{Source: path}, st)
	cached, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("expected load from storage, got %v", err)
	}
	if cached.Origin != OriginStorage {
		t.Errorf("unexpected origin: %q", cached.Origin)
	}
	if cached.Checksum != snap.Checksum {
		t.Errorf("checksum mismatch: %s vs %s", cached.Checksum, snap.Checksum)
	}
}

func TestRefresh_FailureKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	path := copySample(t)
	svc := NewService(Config{Source: path})
	before, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := svc.Refresh(ctx); !errors.Is(err, dataset.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}

	after, err := svc.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after != before {
		t.Errorf("expected the previous snapshot to stay current")
	}
}

func TestRefresh_SwapsDataset(t *testing.T) {
	ctx := context.Background()
	path := copySample(t)
	svc := NewService(Config{Source: path})
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pinned, _ := svc.Current()

	doc := `{"Tuition_Fees":[{"Program":"Computer Science","Major":"General","Residency":"Domestic","Province":"ON","Load":"Full-Time","CohortYear":"2024-2025","FallWinterTotal":"$7,500.00"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	est, _ := svc.Estimate(csFilter())
	if got := money.Format(est.GrandTotal); got != "$7,500.00" {
		t.Errorf("expected refreshed total, got %s", got)
	}
	if got := money.Format(estimator.Compute(pinned.Dataset, csFilter()).GrandTotal); got != "$7,000.00" {
		t.Errorf("pinned dataset must not change, got %s", got)
	}

	sum, err := svc.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.MissingTables) != len(dataset.RequiredTables)-1 {
		t.Errorf("unexpected missing tables: %v", sum.MissingTables)
	}
}
