package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cassandra metrics for monitoring query performance and reliability
var (
	CassandraQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cassandra_query_duration_seconds",
		Help:    "Cassandra query latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation", "table"})

	CassandraQueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cassandra_query_total",
		Help: "Total number of Cassandra queries executed",
	}, []string{"operation", "table", "status"})

	// Postgres connection pool metrics
	DBConnectionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connections_in_use",
		Help: "Current number of database connections in use",
	})

	DBConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connections_idle",
		Help: "Current number of idle database connections",
	})

	DBConnectionAcquireTimeoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "db_connection_acquire_timeout_total",
		Help: "Total number of database connection acquisition timeouts",
	})

	DBConnectionAcquireTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "db_connection_acquire_total",
		Help: "Total number of database connection acquisitions",
	})

	DBConnectionAcquireDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "db_connection_acquire_duration_seconds",
		Help:    "Database connection acquisition latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Request timeout metrics
	RequestTimeoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "request_timeout_total",
		Help: "Total number of request timeouts",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_duration_seconds",
		Help:    "Request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path", "status"})

	RequestTimeoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_timeout_duration_seconds",
		Help:    "Request timeout duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})
)

// RecordCassandraQueryDuration records the duration of a Cassandra query
func RecordCassandraQueryDuration(operation, table string, duration float64) {
	CassandraQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCassandraQuery records a Cassandra query execution
func RecordCassandraQuery(operation, table, status string) {
	CassandraQueryTotal.WithLabelValues(operation, table, status).Inc()
}

// RecordDBConnectionsInUse sets the number of database connections in use
func RecordDBConnectionsInUse(count int) {
	DBConnectionsInUse.Set(float64(count))
}

// RecordDBConnectionsIdle sets the number of idle database connections
func RecordDBConnectionsIdle(count int) {
	DBConnectionsIdle.Set(float64(count))
}

// RecordDBConnectionAcquireTimeout records a database connection acquisition timeout
func RecordDBConnectionAcquireTimeout() {
	DBConnectionAcquireTimeoutTotal.Inc()
}

// RecordDBConnectionAcquire records a database connection acquisition
func RecordDBConnectionAcquire() {
	DBConnectionAcquireTotal.Inc()
}

// RecordDBConnectionAcquireDuration records database connection acquisition latency
func RecordDBConnectionAcquireDuration(duration float64) {
	DBConnectionAcquireDuration.Observe(duration)
}

// RecordRequestTimeout records a request timeout
func RecordRequestTimeout(timeout time.Duration, duration time.Duration, method, path string) {
	RequestTimeoutTotal.Inc()
	RequestTimeoutDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRequestDuration records a request duration
func RecordRequestDuration(duration time.Duration, method, path, status string) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
