package repository

import (
	"context"
	"time"
)

// LocalProfile es el espejo relacional de una cuenta del IdP.
// Invariante: una fila por email; si un merge cambia la cuenta canónica
// para ese email, la fila migra su AccountID en lugar de duplicarse.
type LocalProfile struct {
	AccountID   string // único
	Email       string // único; puede estar vacío solo en resultados degradados
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileRepository define las operaciones sobre la tabla espejo.
type ProfileRepository interface {
	// FindByEmail busca la fila por email normalizado. ErrNotFound si no hay.
	FindByEmail(ctx context.Context, email string) (*LocalProfile, error)

	// FindByAccountID busca la fila por account id. ErrNotFound si no hay.
	FindByAccountID(ctx context.Context, accountID string) (*LocalProfile, error)

	// UpsertByAccountID actualiza la fila de accountID o la inserta.
	UpsertByAccountID(ctx context.Context, p LocalProfile) error

	// UpdateAccountID migra la fila de email hacia newAccountID, in place.
	// ErrNotFound si no existe fila para ese email.
	UpdateAccountID(ctx context.Context, email, newAccountID string) error
}
