package reconcile

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/linkjohn/internal/http/dto/reconcile"
	httperrors "github.com/dropDatabas3/linkjohn/internal/http/errors"
	"github.com/dropDatabas3/linkjohn/internal/http/helpers"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
	svc "github.com/dropDatabas3/linkjohn/internal/reconcile"
)

const minPasswordLength = 8

// VerificationController handles the add-password verification endpoints.
type VerificationController struct {
	service *svc.Service
}

// NewVerificationController creates a new VerificationController.
func NewVerificationController(service *svc.Service) *VerificationController {
	return &VerificationController{service: service}
}

// Start handles POST /v1/verification/start
func (c *VerificationController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("VerificationController.Start"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.VerificationStartRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email required"))
		return
	}

	if err := c.service.IssueVerificationCode(ctx, email); err != nil {
		log.Warn("verification start failed",
			logger.EmailMasked(email),
			logger.Err(err),
		)
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.VerificationStartResponse{Sent: true})
}

// Confirm handles POST /v1/verification/confirm
func (c *VerificationController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("VerificationController.Confirm"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.VerificationConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Code == "" || req.NewPassword == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email, code y new_password requeridos"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("new_password demasiado corta"))
		return
	}

	out, err := c.service.ConsumeVerificationAndSetPassword(ctx, email, req.Code, req.NewPassword)
	if err != nil {
		log.Warn("verification confirm failed",
			logger.EmailMasked(email),
			logger.Err(err),
		)
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.VerificationConfirmResponse{
		Success:   true,
		AccountID: out.AccountID,
	})
}
