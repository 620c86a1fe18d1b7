// Package httptransport wires the HTTP surface: middleware stack, public
// routes, and the admin-guarded group.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "sigil/internal/admin/handler"
	certificatehandler "sigil/internal/certificate/handler"
	"sigil/internal/platform/health"
	adminmw "sigil/pkg/platform/middleware/admin"
	"sigil/pkg/platform/middleware/metadata"
	"sigil/pkg/platform/middleware/request"
)

const (
	requestTimeout = 30 * time.Second
	// Multipart certificate uploads plus form fields fit comfortably here.
	maxBodyBytes = 12 << 20
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Certificates  *certificatehandler.Handler
	Admins        *adminhandler.Handler
	Health        *health.Handler
	TokenVerifier adminmw.TokenVerifier
	Metadata      *metadata.Middleware
	Latency       *request.Metrics
}

// NewRouter assembles the full middleware stack and mounts all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	if deps.Metadata != nil {
		r.Use(deps.Metadata.Handler)
	}
	r.Use(request.Logger(deps.Logger))
	r.Use(request.Timeout(requestTimeout))
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.ContentTypeJSON)
	if deps.Latency != nil {
		r.Use(request.LatencyMiddleware(deps.Latency))
	}

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Certificates.Register(r)
	deps.Admins.Register(r)

	r.Group(func(guarded chi.Router) {
		guarded.Use(adminmw.RequireAdmin(deps.TokenVerifier, deps.Logger))
		deps.Certificates.RegisterAdmin(guarded)
		deps.Admins.RegisterAdmin(guarded)
	})

	return r
}
