// Package pg implementa repository.ProfileRepository sobre Postgres (pgx).
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

type Repo struct{ pool *pgxpool.Pool }

// Close cierra el pool subyacente (idempotente).
func (r *Repo) Close() {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
}

func (r *Repo) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

type Config struct {
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

func New(ctx context.Context, dsn string, cfg Config) (*Repo, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

var _ repository.ProfileRepository = (*Repo)(nil)

func (r *Repo) FindByEmail(ctx context.Context, email string) (*repository.LocalProfile, error) {
	const q = `
		SELECT account_id, email, display_name, created_at, updated_at
		FROM local_profiles
		WHERE email = $1`

	return r.scanOne(r.pool.QueryRow(ctx, q, domain.NormalizeEmail(email)))
}

func (r *Repo) FindByAccountID(ctx context.Context, accountID string) (*repository.LocalProfile, error) {
	const q = `
		SELECT account_id, email, display_name, created_at, updated_at
		FROM local_profiles
		WHERE account_id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, q, accountID))
}

func (r *Repo) UpsertByAccountID(ctx context.Context, p repository.LocalProfile) error {
	const q = `
		INSERT INTO local_profiles (account_id, email, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (account_id)
		DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, q, p.AccountID, domain.NormalizeEmail(p.Email), p.DisplayName)
	return err
}

func (r *Repo) UpdateAccountID(ctx context.Context, email, newAccountID string) error {
	const q = `
		UPDATE local_profiles
		SET account_id = $2, updated_at = NOW()
		WHERE email = $1`

	tag, err := r.pool.Exec(ctx, q, domain.NormalizeEmail(email), newAccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repo) scanOne(row pgx.Row) (*repository.LocalProfile, error) {
	var p repository.LocalProfile
	err := row.Scan(&p.AccountID, &p.Email, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
