// Package cron refreshes the dataset on a schedule.
package cron

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bher20/costcalc/internal/alerting"
	"github.com/bher20/costcalc/internal/catalog"
	"github.com/bher20/costcalc/internal/metrics"
	"github.com/bher20/costcalc/internal/storage"
	"github.com/robfig/cron/v3"
)

const (
	// JobName names the refresh job in metrics and the scheduled_jobs table.
	JobName = "dataset_refresh"
	// DefaultSchedule refreshes hourly.
	DefaultSchedule = "3600"

	lockKey int64 = 7310
)

// Refresher reloads the dataset from its source.
type Refresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
	Source() string
}

// ValidateSchedule accepts integer seconds or a standard five-field cron
// expression.
func ValidateSchedule(setting string) error {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil {
		if v <= 0 {
			return fmt.Errorf("schedule seconds must be positive, got %d", v)
		}
		return nil
	}
	if _, err := cron.ParseStandard(setting); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", setting, err)
	}
	return nil
}

// NextRun computes the run after last. Unparseable settings fall back to
// the default interval.
func NextRun(setting string, last time.Time) time.Time {
	setting = strings.TrimSpace(setting)
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return last.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(last)
	}
	v, _ := strconv.Atoi(DefaultSchedule)
	return last.Add(time.Duration(v) * time.Second)
}

// Worker runs the scheduled refresh.
type Worker struct {
	svc      Refresher
	store    storage.Storage
	alerter  *alerting.Alerter
	schedule string

	// Tick is how often the control loop checks settings and the clock.
	Tick time.Duration

	failures int
}

// NewWorker returns a Worker. schedule is the configured default; a
// refresh_schedule setting in storage overrides it.
func NewWorker(svc Refresher, st storage.Storage, alerter *alerting.Alerter, schedule string) *Worker {
	if strings.TrimSpace(schedule) == "" {
		schedule = DefaultSchedule
	}
	return &Worker{svc: svc, store: st, alerter: alerter, schedule: schedule, Tick: 10 * time.Second}
}

// RunRefresher runs a Worker until ctx is cancelled.
func RunRefresher(ctx context.Context, svc Refresher, st storage.Storage, alerter *alerting.Alerter, schedule string) error {
	return NewWorker(svc, st, alerter, schedule).Run(ctx)
}

func (w *Worker) currentSchedule(ctx context.Context) string {
	if w.store == nil {
		return w.schedule
	}
	val, err := w.store.GetSetting(ctx, storage.SettingRefreshSchedule)
	if err != nil || val == "" {
		return w.schedule
	}
	if err := ValidateSchedule(val); err != nil {
		log.Printf("cron: ignoring stored schedule: %v", err)
		return w.schedule
	}
	return val
}

// Run loops until ctx is cancelled. The first refresh happens one schedule
// period after start, since the dataset was loaded at start-up.
func (w *Worker) Run(ctx context.Context) error {
	setting := w.currentSchedule(ctx)
	nextRun := NextRun(setting, time.Now())

	ticker := time.NewTicker(w.Tick)
	defer ticker.Stop()

	log.Printf("cron: refresh worker starting, schedule=%q next=%s", setting, nextRun.Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val := w.currentSchedule(ctx); val != setting {
				log.Printf("cron: schedule updated from %q to %q", setting, val)
				setting = val
				nextRun = NextRun(setting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}
			w.RunOnce(ctx)
			nextRun = NextRun(setting, time.Now())
		}
	}
}

// RunOnce performs one guarded refresh and records its outcome. It returns
// the refresh error, or nil when the run was skipped because another
// replica holds the lock.
func (w *Worker) RunOnce(ctx context.Context) error {
	started := time.Now()

	if w.store != nil {
		ok, err := w.store.AcquireAdvisoryLock(ctx, lockKey)
		if err != nil {
			log.Printf("cron: acquire advisory lock failed: %v", err)
			metrics.UpdateJobMetrics(JobName, started, err)
			return err
		}
		if !ok {
			log.Printf("cron: advisory lock held by another worker, skipping run")
			return nil
		}
		defer func() {
			if _, err := w.store.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
				log.Printf("cron: release advisory lock failed: %v", err)
			}
		}()
	}

	_, runErr := w.svc.Refresh(ctx)

	// Record metrics & job row.
	metrics.UpdateJobMetrics(JobName, started, runErr)
	dur := time.Since(started)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if w.store != nil {
		if err := w.store.UpdateScheduledJob(ctx, JobName, started, dur, runErr == nil, errMsg); err != nil {
			log.Printf("cron: update scheduled_jobs failed: %v", err)
		}
	}

	if runErr == nil {
		w.failures = 0
		log.Printf("cron: job %s completed successfully (duration=%s)", JobName, dur)
		return nil
	}

	w.failures++
	log.Printf("cron: job %s completed with error: %v (duration=%s)", JobName, runErr, dur)
	if err := w.alerter.SendRefreshAlert(ctx, alerting.RefreshAlert{
		JobName:             JobName,
		Source:              w.svc.Source(),
		ConsecutiveFailures: w.failures,
		LastError:           errMsg,
		Duration:            dur,
		Timestamp:           started,
	}); err != nil {
		log.Printf("cron: send alert failed: %v", err)
	}
	return runErr
}
