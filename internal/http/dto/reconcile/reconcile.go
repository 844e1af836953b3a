// Package reconcile contiene los DTOs del flujo de reconciliación.
package reconcile

import (
	svc "github.com/dropDatabas3/linkjohn/internal/reconcile"
)

// CheckRequest dispara la reconciliación para una cuenta ya autenticada.
type CheckRequest struct {
	AccountID string `json:"account_id"`

	// TriggerProvider es el provider que acaba de autenticar (opcional,
	// se deriva del último provider record si falta).
	TriggerProvider string `json:"trigger_provider,omitempty"`

	// NewAccount indica si la cuenta fue creada por este mismo sign-in
	// (opcional, se deriva si falta).
	NewAccount *bool `json:"new_account,omitempty"`
}

// ExchangeRequest intercambia una credencial social por una cuenta
// reconciliada.
type ExchangeRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token,omitempty"`
	IDToken     string `json:"id_token,omitempty"`
}

// OutcomeResponse es el resultado de una reconciliación.
type OutcomeResponse struct {
	// Action: signin | merged | needsVerification
	Action    string `json:"action"`
	AccountID string `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`

	BridgingToken       string `json:"bridging_token,omitempty"`
	DidPreservePassword bool   `json:"did_preserve_password,omitempty"`

	ExistingProviderKinds []string `json:"existing_provider_kinds,omitempty"`

	PartialFailures []string `json:"partial_failures,omitempty"`
	ProfileDegraded bool     `json:"profile_degraded,omitempty"`
}

// FromOutcome mapea el Outcome del service al DTO.
func FromOutcome(o *svc.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Action:              string(o.Action),
		AccountID:           o.AccountID,
		Email:               o.Email,
		BridgingToken:       o.BridgingToken,
		DidPreservePassword: o.DidPreservePassword,
		PartialFailures:     o.PartialFailures,
		ProfileDegraded:     o.ProfileDegraded,
	}
	for _, k := range o.ExistingProviderKinds {
		resp.ExistingProviderKinds = append(resp.ExistingProviderKinds, string(k))
	}
	return resp
}

// VerificationStartRequest pide un código para agregar contraseña.
type VerificationStartRequest struct {
	Email string `json:"email"`
}

// VerificationStartResponse confirma el envío sin revelar el código.
type VerificationStartResponse struct {
	Sent bool `json:"sent"`
}

// VerificationConfirmRequest canjea el código y fija la contraseña.
type VerificationConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// VerificationConfirmResponse reporta el alta de la contraseña.
type VerificationConfirmResponse struct {
	Success   bool   `json:"success"`
	AccountID string `json:"account_id,omitempty"`
}
