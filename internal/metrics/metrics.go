// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costcalc_requests_total",
			Help: "Total number of requests per route",
		},
		[]string{"path"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costcalc_request_duration_seconds",
			Help:    "Request duration in seconds per route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costcalc_request_errors_total",
			Help: "Total number of error responses per route and status code",
		},
		[]string{"path", "code"},
	)

	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costcalc_estimates_total",
			Help: "Estimates computed per tuition table and outcome",
		},
		[]string{"table", "outcome"},
	)

	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costcalc_dataset_loads_total",
			Help: "Dataset load attempts per origin and result",
		},
		[]string{"origin", "result"},
	)

	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_dataset_rows",
			Help: "Rows per table in the current dataset",
		},
		[]string{"table"},
	)

	DatasetLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "costcalc_dataset_loaded_timestamp",
			Help: "Unix timestamp of the last successful dataset load",
		},
	)
)

// Outcome labels for EstimatesTotal.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
)

// ObserveEstimate counts one computed estimate.
func ObserveEstimate(table string, matched bool) {
	outcome := OutcomeNoMatch
	if matched {
		outcome = OutcomeMatched
	}
	EstimatesTotal.WithLabelValues(table, outcome).Inc()
}

// ObserveDatasetLoad counts a load attempt. On success rows replaces the
// per-table row gauge.
func ObserveDatasetLoad(origin string, rows map[string]int, err error) {
	if err != nil {
		DatasetLoadsTotal.WithLabelValues(origin, "error").Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues(origin, "ok").Inc()
	DatasetRows.Reset()
	for table, n := range rows {
		DatasetRows.WithLabelValues(table).Set(float64(n))
	}
	DatasetLoadedTimestamp.Set(float64(time.Now().Unix()))
}

var (
	DBPoolOpenConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_db_pool_open_conns",
			Help: "Open connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_db_pool_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolInUseConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_db_pool_in_use_conns",
			Help: "Currently in-use connections per driver",
		},
		[]string{"driver"},
	)

	DBPoolWaitCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_db_pool_wait_count",
			Help: "Total number of connections waited for per driver",
		},
		[]string{"driver"},
	)
)

func UpdateDBPoolMetrics(driver string, st sql.DBStats) {
	DBPoolOpenConns.WithLabelValues(driver).Set(float64(st.OpenConnections))
	DBPoolIdleConns.WithLabelValues(driver).Set(float64(st.Idle))
	DBPoolInUseConns.WithLabelValues(driver).Set(float64(st.InUse))
	DBPoolWaitCount.WithLabelValues(driver).Set(float64(st.WaitCount))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "costcalc_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costcalc_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
