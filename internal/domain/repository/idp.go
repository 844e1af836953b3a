package repository

import (
	"context"

	"github.com/dropDatabas3/linkjohn/internal/domain"
)

// CreateAccountInput contiene los datos para crear una cuenta en el IdP.
type CreateAccountInput struct {
	Email       string // opcional: puede quedar vacío (cuenta solo-social)
	DisplayName string
}

// UpdateCredentialsInput contiene los cambios de credenciales de una cuenta.
// Los campos nil no se modifican.
type UpdateCredentialsInput struct {
	Email    *string
	Password *string
}

// IdPBackend define las operaciones que el core consume del backend de
// identidad externo. El core no implementa el IdP: solo lo orquesta.
type IdPBackend interface {
	// LookupAccountByEmail busca por el campo email top-level.
	// Retorna ErrNotFound si no existe. No aplica el fallback por
	// provider-email: eso es responsabilidad del Identity Lookup.
	LookupAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetAccount retorna la cuenta por ID. ErrNotFound si no existe.
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts enumera cuentas en orden estable, paginado.
	// page arranca en 0. Retorna slice vacío cuando no hay más páginas.
	ListAccounts(ctx context.Context, page, pageSize int) ([]domain.Account, error)

	// CreateAccount crea una cuenta nueva sin provider records.
	CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error)

	// DeleteAccount elimina la cuenta. ErrNotFound si no existe
	// (el caller decide si eso es benigno).
	DeleteAccount(ctx context.Context, accountID string) error

	// AttachProvider vincula un provider record a la cuenta.
	// Retorna ErrAlreadyLinked si (kind, providerUserID) pertenece a OTRA
	// cuenta viva. Re-vincular el mismo record a la misma cuenta es no-op.
	AttachProvider(ctx context.Context, accountID string, kind domain.ProviderKind, providerUserID, providerEmail string) error

	// MintBridgingCredential emite un token one-time para re-establecer
	// sesión como accountID.
	MintBridgingCredential(ctx context.Context, accountID string) (string, error)

	// UpdateAccountCredentials actualiza email y/o password.
	// Setear password en una cuenta sin provider password agrega el record.
	UpdateAccountCredentials(ctx context.Context, accountID string, in UpdateCredentialsInput) error
}
