// Package catalog owns the fee dataset the service computes against. The
// current dataset is an immutable value behind an atomic pointer: readers
// pin one value per request and a refresh swaps in a new one.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/estimator"
	"github.com/bher20/costcalc/internal/metrics"
	"github.com/bher20/costcalc/internal/storage"
)

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("catalog: dataset not loaded")

// Origins of a loaded snapshot.
const (
	OriginStorage = "storage"
	OriginSource  = "source"
)

// Config controls where the dataset comes from.
type Config struct {
	// Source is a local .json/.xlsx path or an http(s) URL.
	Source string
	// Client is used for remote sources; nil means a default client.
	Client *http.Client
}

// Snapshot is one loaded dataset with its provenance.
type Snapshot struct {
	Dataset  *dataset.Dataset
	Source   string
	Checksum string
	Origin   string
	LoadedAt time.Time
}

// Summary describes a snapshot for the dataset endpoint.
type Summary struct {
	dataset.Summary
	Source   string    `json:"source"`
	Origin   string    `json:"origin"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Service coordinates loading, caching and refreshing the dataset.
type Service struct {
	cfg     Config
	store   storage.Storage // may be nil
	current atomic.Pointer[Snapshot]
}

// NewService returns a Service that reads only from the configured source.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// NewServiceWithStorage returns a Service that also caches snapshots in st.
func NewServiceWithStorage(cfg Config, st storage.Storage) *Service {
	return &Service{cfg: cfg, store: st}
}

// NewServiceWithDataset returns a Service pinned to an already loaded
// dataset.
func NewServiceWithDataset(ds *dataset.Dataset) *Service {
	s := &Service{}
	s.current.Store(&Snapshot{Dataset: ds, Checksum: ds.Checksum(), Origin: OriginSource, LoadedAt: time.Now()})
	return s
}

// Source is the configured dataset source.
func (s *Service) Source() string { return s.cfg.Source }

// Load makes a dataset current. It consults persistent storage first; on a
// cache miss it reads the source and writes a snapshot back.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	if snap := s.fromStorage(ctx); snap != nil {
		s.current.Store(snap)
		metrics.ObserveDatasetLoad(OriginStorage, snap.Dataset.Summary().Tables, nil)
		log.Printf("catalog: loaded dataset %s from storage (checksum %.12s)", snap.Source, snap.Checksum)
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh always reads the source. On failure the current dataset is kept
// and the error is returned.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	ds, err := dataset.Load(ctx, s.cfg.Client, s.cfg.Source)
	if err != nil {
		metrics.ObserveDatasetLoad(OriginSource, nil, err)
		return nil, err
	}

	snap := &Snapshot{
		Dataset:  ds,
		Source:   s.cfg.Source,
		Checksum: ds.Checksum(),
		Origin:   OriginSource,
		LoadedAt: time.Now(),
	}
	prev := s.current.Swap(snap)
	sum := ds.Summary()
	metrics.ObserveDatasetLoad(OriginSource, sum.Tables, nil)
	if len(sum.MissingTables) > 0 {
		log.Printf("catalog: dataset %s is missing tables %v", s.cfg.Source, sum.MissingTables)
	}

	if prev != nil && prev.Checksum == snap.Checksum {
		return snap, nil
	}
	log.Printf("catalog: loaded dataset %s (checksum %.12s)", s.cfg.Source, snap.Checksum)

	// Best-effort write-back to storage.
	if s.store != nil {
		if payload, err := ds.MarshalJSON(); err == nil {
			if err := s.store.SaveDatasetSnapshot(ctx, storage.DatasetSnapshot{
				Source:   snap.Source,
				Checksum: snap.Checksum,
				Payload:  payload,
				LoadedAt: snap.LoadedAt,
			}); err != nil {
				log.Printf("catalog: snapshot write-back failed: %v", err)
			}
		}
	}
	return snap, nil
}

func (s *Service) fromStorage(ctx context.Context) *Snapshot {
	if s.store == nil {
		return nil
	}
	rec, err := s.store.GetDatasetSnapshot(ctx, s.cfg.Source)
	if err != nil {
		log.Printf("catalog: snapshot lookup failed: %v", err)
		return nil
	}
	if rec == nil || len(rec.Payload) == 0 {
		return nil
	}
	ds, err := dataset.Decode(bytes.NewReader(rec.Payload))
	if err != nil {
		// Fall through to the source.
		log.Printf("catalog: stored snapshot unreadable: %v", err)
		return nil
	}
	return &Snapshot{
		Dataset:  ds,
		Source:   rec.Source,
		Checksum: ds.Checksum(),
		Origin:   OriginStorage,
		LoadedAt: rec.LoadedAt,
	}
}

// Current returns the pinned snapshot or ErrNotLoaded.
func (s *Service) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Summary describes the current snapshot.
func (s *Service) Summary() (Summary, error) {
	snap, err := s.Current()
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Summary:  snap.Dataset.Summary(),
		Source:   snap.Source,
		Origin:   snap.Origin,
		LoadedAt: snap.LoadedAt,
	}, nil
}

// Estimate computes f against the current dataset.
func (s *Service) Estimate(f estimator.Filter) (estimator.Estimate, error) {
	snap, err := s.Current()
	if err != nil {
		return estimator.Estimate{}, err
	}
	est := estimator.Compute(snap.Dataset, f)
	metrics.ObserveEstimate(est.Table.String(), est.Matched)
	return est, nil
}

// Options lists the selectable values for f against the current dataset.
func (s *Service) Options(f estimator.Filter) (estimator.Options, error) {
	snap, err := s.Current()
	if err != nil {
		return estimator.Options{}, err
	}
	return estimator.AllOptions(snap.Dataset, f), nil
}
