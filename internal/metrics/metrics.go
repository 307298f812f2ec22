package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Imports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendify", Name: "imports_total", Help: "Spreadsheet imports by kind and outcome",
	}, []string{"kind", "outcome"})
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendify", Name: "import_rows_total", Help: "Imported rows by kind and row outcome",
	}, []string{"kind", "outcome"})
	AttendanceWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendify", Name: "attendance_writes_total", Help: "Attendance upserts by status",
	}, []string{"status"})
	BatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendify", Name: "batch_failures_total", Help: "Bulk writes rolled back",
	}, []string{"op"})
	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendify", Name: "exports_total", Help: "Generated exports by format",
	}, []string{"format"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendify", Name: "handler_errors_total", Help: "HTTP handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendify", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Imports, ImportRows, AttendanceWrites, BatchFailures, Exports, HandlerErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
