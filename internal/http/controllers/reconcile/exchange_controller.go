package reconcile

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	dto "github.com/dropDatabas3/linkjohn/internal/http/dto/reconcile"
	httperrors "github.com/dropDatabas3/linkjohn/internal/http/errors"
	"github.com/dropDatabas3/linkjohn/internal/http/helpers"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
	svc "github.com/dropDatabas3/linkjohn/internal/reconcile"
)

// ExchangeController handles the social credential exchange endpoint.
type ExchangeController struct {
	service *svc.Service
}

// NewExchangeController creates a new ExchangeController.
func NewExchangeController(service *svc.Service) *ExchangeController {
	return &ExchangeController{service: service}
}

// Exchange handles POST /v1/auth/social/exchange
func (c *ExchangeController) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExchangeController.Exchange"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.ExchangeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	kind := domain.ProviderKind(strings.ToLower(strings.TrimSpace(req.Provider)))
	if kind == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("provider required"))
		return
	}
	if kind.IsPassword() {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("password no pasa por exchange"))
		return
	}
	if req.AccessToken == "" && req.IDToken == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("access_token o id_token requerido"))
		return
	}

	out, err := c.service.ExchangeAndReconcile(ctx, kind, req.AccessToken, req.IDToken)
	if err != nil {
		log.Warn("social exchange failed",
			logger.Provider(string(kind)),
			logger.Err(err),
		)
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.FromOutcome(out))
}
