// Package reconcile contiene los controllers del flujo de reconciliación.
package reconcile

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	dto "github.com/dropDatabas3/linkjohn/internal/http/dto/reconcile"
	httperrors "github.com/dropDatabas3/linkjohn/internal/http/errors"
	"github.com/dropDatabas3/linkjohn/internal/http/helpers"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
	"github.com/dropDatabas3/linkjohn/internal/providers"
	svc "github.com/dropDatabas3/linkjohn/internal/reconcile"
)

// CheckController handles the reconciliation check endpoint.
type CheckController struct {
	service *svc.Service
}

// NewCheckController creates a new CheckController.
func NewCheckController(service *svc.Service) *CheckController {
	return &CheckController{service: service}
}

// Check handles POST /v1/reconcile/check
func (c *CheckController) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CheckController.Check"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.CheckRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("account_id required"))
		return
	}

	out, err := c.service.CheckAndReconcile(ctx, svc.CheckInput{
		AccountID:       strings.TrimSpace(req.AccountID),
		TriggerProvider: domain.ProviderKind(strings.ToLower(strings.TrimSpace(req.TriggerProvider))),
		NewAccount:      req.NewAccount,
	})
	if err != nil {
		log.Warn("reconcile check failed", logger.Err(err))
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.FromOutcome(out))
}

// writeServiceError mapea errores del service a la superficie HTTP.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrAccountNotFound):
		httperrors.WriteError(w, httperrors.ErrAccountNotFound)
	case errors.Is(err, svc.ErrProviderDisabled):
		httperrors.WriteError(w, httperrors.ErrProviderDisabled)
	case errors.Is(err, svc.ErrAlreadyHasPassword):
		httperrors.WriteError(w, httperrors.ErrAlreadyHasPassword)
	case errors.Is(err, svc.ErrInvalidOrExpiredCode):
		httperrors.WriteError(w, httperrors.ErrInvalidOrExpiredCode)
	case errors.Is(err, providers.ErrTokenInvalid):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
	case errors.Is(err, providers.ErrEmailMissing):
		httperrors.WriteError(w, httperrors.ErrEmailMissing)
	default:
		httperrors.WriteError(w, err)
	}
}
