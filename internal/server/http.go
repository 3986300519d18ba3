// Package server assembles the HTTP surface: route layout, middleware order,
// and the handler wiring for every mounted module.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	analysishandler "purityscan/backend/internal/analysis/handler"
	analysisservice "purityscan/backend/internal/analysis/service"
	analyticshandler "purityscan/backend/internal/analytics/handler"
	analyticsservice "purityscan/backend/internal/analytics/service"
	"purityscan/backend/internal/audit"
	healthhandler "purityscan/backend/internal/health/handler"
	"purityscan/backend/internal/server/middleware"
	"purityscan/backend/internal/spectrum"
	"purityscan/backend/internal/telemetry"
)

// Deps holds the wired services the router mounts. Nil fields degrade rather
// than fail: a nil Telemetry emitter disables request events, a nil
// HealthPinger reduces /healthz to a liveness probe.
type Deps struct {
	Gate      middleware.Authenticator
	Auditor   audit.AuditLogger
	Telemetry telemetry.EventEmitter

	Registry    *analysisservice.Registry
	Coordinator *analysisservice.Coordinator
	Analytics   *analyticsservice.Service
	Decoder     *spectrum.Decoder

	HealthPinger   healthhandler.Pinger
	MaxUploadBytes int64
}

// NewRouter builds the full route tree.
//
// /healthz is public. Everything under /v1 passes Authenticate first and the
// Telemetry middleware second, so request events carry the caller's identity.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.StoreClientIP)

	r.Get("/healthz", healthhandler.NewHandler(deps.HealthPinger).Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Gate, deps.Auditor))
		r.Use(middleware.Telemetry(deps.Telemetry))

		analysishandler.NewHandler(deps.Registry, deps.Coordinator, deps.Decoder, deps.MaxUploadBytes).Routes(r)
		analyticshandler.NewHandler(deps.Analytics).Routes(r)
	})

	return otelhttp.NewHandler(r, "purityscan-api")
}
