// Package http arma el router y el servidor del servicio de
// reconciliación de identidades.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	healthctl "github.com/dropDatabas3/linkjohn/internal/http/controllers/health"
	reconcilectl "github.com/dropDatabas3/linkjohn/internal/http/controllers/reconcile"
	httperrors "github.com/dropDatabas3/linkjohn/internal/http/errors"
	"github.com/dropDatabas3/linkjohn/internal/http/middlewares"
)

// Controllers agrupa los controllers que monta el router.
type Controllers struct {
	Check        *reconcilectl.CheckController
	Exchange     *reconcilectl.ExchangeController
	Verification *reconcilectl.VerificationController
	Health       *healthctl.HealthController

	// Metrics es el handler de /metrics (nil lo deshabilita).
	Metrics stdhttp.Handler
}

// NewRouter construye el router chi con la cadena de middlewares
// estándar: request id, logging, métricas, recover.
func NewRouter(c Controllers) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(WithMetrics)
	r.Use(middlewares.WithRecover())

	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
	if c.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", c.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middlewares.WithNoStore())

		r.Post("/v1/reconcile/check", c.Check.Check)
		r.Post("/v1/auth/social/exchange", c.Exchange.Exchange)
		r.Post("/v1/verification/start", c.Verification.Start)
		r.Post("/v1/verification/confirm", c.Verification.Confirm)
	})

	r.NotFound(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}
