// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/dropDatabas3/linkjohn/internal/http/errors"
	"github.com/dropDatabas3/linkjohn/internal/http/helpers"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

// Pinger es una dependencia chequeable por readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type component struct {
	name string
	ping Pinger
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	components []component
	version    string
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(version string) *HealthController {
	return &HealthController{version: version}
}

// AddComponent registra una dependencia a chequear en /readyz.
func (c *HealthController) AddComponent(name string, p Pinger) {
	c.components = append(c.components, component{name: name, ping: p})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthz maneja GET /healthz (liveness: el proceso responde).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz (readiness: dependencias alcanzables).
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:     "ready",
		Version:    c.version,
		Components: make(map[string]string, len(c.components)),
	}

	for _, comp := range c.components {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := comp.ping.Ping(cctx)
		cancel()
		if err != nil {
			resp.Status = "unavailable"
			resp.Components[comp.name] = err.Error()
			continue
		}
		resp.Components[comp.name] = "ok"
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}

	log.Debug("readiness check completed",
		logger.String("status", resp.Status),
		logger.Count(len(resp.Components)),
	)
	helpers.WriteJSON(w, status, resp)
}
