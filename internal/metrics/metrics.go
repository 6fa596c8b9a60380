package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_requests_total",
			Help: "Total number of API requests per path",
		},
		[]string{"path"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxratemanager_request_duration_seconds",
			Help:    "Request duration in seconds per path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_request_errors_total",
			Help: "Total number of error responses per path and status code",
		},
		[]string{"path", "code"},
	)
)

var (
	BureauFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxratemanager_bureau_fetch_duration_seconds",
			Help:    "Time spent fetching quotes from a bureau",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"bureau"},
	)

	BureauFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_bureau_fetch_errors_total",
			Help: "Total number of failed bureau fetches",
		},
		[]string{"bureau"},
	)

	CollectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fxratemanager_collections_total",
			Help: "Total number of completed snapshot collections",
		},
	)

	SnapshotTimestampSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxratemanager_snapshot_timestamp_seconds",
			Help: "Unix timestamp of the most recently collected snapshot",
		},
	)
)

// ObserveBureauFetch records the outcome of one bureau fetch.
func ObserveBureauFetch(bureau string, startedAt time.Time, err error) {
	BureauFetchDurationSeconds.WithLabelValues(bureau).Observe(time.Since(startedAt).Seconds())
	if err != nil {
		BureauFetchErrorsTotal.WithLabelValues(bureau).Inc()
	}
}

// ObserveCollection records a completed collection at ts.
func ObserveCollection(ts time.Time) {
	CollectionsTotal.Inc()
	SnapshotTimestampSeconds.Set(float64(ts.Unix()))
}

var (
	DBPoolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_db_pool_total_conns",
			Help: "Total number of connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_db_pool_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_db_pool_acquired_conns",
			Help: "Currently acquired (in-use) connections per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquires = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_db_pool_acquires",
			Help: "Cumulative number of connection acquires per driver",
		},
		[]string{"driver"},
	)
)

func UpdateDBPoolMetrics(driver string, total, idle, acquired float64, acquires int64) {
	DBPoolTotalConns.WithLabelValues(driver).Set(total)
	DBPoolIdleConns.WithLabelValues(driver).Set(idle)
	DBPoolAcquiredConns.WithLabelValues(driver).Set(acquired)
	DBPoolAcquires.WithLabelValues(driver).Set(float64(acquires))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxratemanager_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_job_failures_total",
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

var (
	PollerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_poller_fetches_total",
			Help: "Snapshot fetches made by the client poller per mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	PublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxratemanager_publish_errors_total",
			Help: "Failed snapshot publications per backend",
		},
		[]string{"backend"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxratemanager_stream_clients",
			Help: "Connected websocket stream clients",
		},
	)
)
