// Package metrics define los contadores prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Requests HTTP por método, ruta y status.",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "Duración de requests HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// SyncRecords cuenta registros por entidad y resultado del upsert.
	// outcome: created | updated | skipped
	SyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_sync_records_total",
		Help: "Registros procesados por el sync de Freshbooks.",
	}, []string{"entity", "outcome"})

	// SyncRuns cuenta corridas de sync por entidad. result: ok | error
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_sync_runs_total",
		Help: "Corridas de sync por entidad y resultado.",
	}, []string{"entity", "result"})

	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_token_refreshes_total",
		Help: "Refreshes de access token contra el proveedor de billing.",
	})
)
