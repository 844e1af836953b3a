// Package profile reconciles the local relational mirror row with the
// externally-owned account id.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

// Result reports how a sync ended.
type Result struct {
	Profile *repository.LocalProfile

	// Degraded is true when no effective email could be determined and
	// persistence was skipped rather than failing the auth flow.
	Degraded bool
}

// Service applies the one-row-per-email invariant on the mirror table.
type Service struct {
	repo repository.ProfileRepository
	now  func() time.Time
}

// NewService creates a Service.
func NewService(repo repository.ProfileRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Known reports whether a mirror row exists for accountID.
func (s *Service) Known(ctx context.Context, accountID string) bool {
	_, err := s.repo.FindByAccountID(ctx, accountID)
	return err == nil
}

// Sync upserts the mirror row for accountID.
//
// When a row already exists for effectiveEmail under a DIFFERENT account
// id, a merge just changed which account is canonical for that email:
// the row migrates its account id in place. Never a second row per email.
func (s *Service) Sync(ctx context.Context, accountID, effectiveEmail, displayName string) (Result, error) {
	log := logger.From(ctx).With(
		logger.Component("profile.sync"),
		logger.AccountID(accountID),
	)

	email := domain.NormalizeEmail(effectiveEmail)
	if email == "" {
		log.Warn("no effective email, skipping mirror persistence")
		return Result{Degraded: true}, nil
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.AccountID != accountID:
		if err := s.repo.UpdateAccountID(ctx, email, accountID); err != nil {
			return Result{}, fmt.Errorf("migrate profile account id: %w", err)
		}
		log.Info("mirror row migrated to new canonical account",
			logger.EmailMasked(email),
			logger.String("previous_account_id", existing.AccountID),
		)
	case err != nil && !repository.IsNotFound(err):
		return Result{}, fmt.Errorf("find profile by email: %w", err)
	}

	p := repository.LocalProfile{
		AccountID:   accountID,
		Email:       email,
		DisplayName: displayName,
		UpdatedAt:   s.now(),
	}
	if err := s.repo.UpsertByAccountID(ctx, p); err != nil {
		return Result{}, fmt.Errorf("upsert profile: %w", err)
	}

	log.Debug("mirror row synced", logger.EmailMasked(email))
	return Result{Profile: &p}, nil
}
