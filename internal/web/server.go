// Package web serves the public status page and the staff dashboard. The
// responder only reads shared state: KPI views, the metrics snapshot, and
// the ledger, all behind their own synchronization.
package web

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"

	"github.com/aura-ops/aura/internal/kpi"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/internal/setup/config"
)

// Server implements the web responder.
type Server struct {
	cfg       *config.Config
	kpi       *kpi.Service
	metrics   *metrics.Accumulator
	uptime    func() time.Duration
	connected func() bool
	logger    *zap.Logger
}

// NewServer creates the responder's HTTP handler. The connected callback
// reports the event consumer's gateway state for the status page, and
// uptime reports process age.
func NewServer(
	cfg *config.Config,
	kpiService *kpi.Service,
	accumulator *metrics.Accumulator,
	connected func() bool,
	uptime func() time.Duration,
	logger *zap.Logger,
) http.Handler {
	server := &Server{
		cfg:       cfg,
		kpi:       kpiService,
		metrics:   accumulator,
		uptime:    uptime,
		connected: connected,
		logger:    logger.Named("web"),
	}

	router := bunrouter.New(
		bunrouter.Use(server.requestIDMiddleware),
		bunrouter.Use(server.accessLogMiddleware),
	)

	router.GET("/", server.handleStatus)

	// Staff routes sit behind basic auth.
	staff := router.Use(server.basicAuthMiddleware)
	staff.GET("/admin", server.handleDashboard)
	staff.POST("/admin", server.handleDashboard)
	staff.GET("/admin/data/metrics", server.handleMetricsData)
	staff.GET("/admin/data/chart", server.handleChannelChart)

	return gzhttp.GzipHandler(router)
}
