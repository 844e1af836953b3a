// Package memory implementa repository.ProfileRepository en memoria.
// Pensado para desarrollo local y tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

type Repo struct {
	mu      sync.RWMutex
	byEmail map[string]*repository.LocalProfile
	byID    map[string]string // accountID -> email
}

func New() *Repo {
	return &Repo{
		byEmail: make(map[string]*repository.LocalProfile),
		byID:    make(map[string]string),
	}
}

var _ repository.ProfileRepository = (*Repo)(nil)

func (r *Repo) FindByEmail(ctx context.Context, email string) (*repository.LocalProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Repo) FindByAccountID(ctx context.Context, accountID string) (*repository.LocalProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.byID[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.byEmail[email]
	return &cp, nil
}

func (r *Repo) UpsertByAccountID(ctx context.Context, p repository.LocalProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(p.Email)
	if prev, ok := r.byID[p.AccountID]; ok && prev != email {
		delete(r.byEmail, prev)
	}
	if existing, ok := r.byEmail[email]; ok && existing.AccountID != p.AccountID {
		return repository.ErrConflict
	}

	cp := p
	cp.Email = email
	if cp.CreatedAt.IsZero() {
		if existing, ok := r.byEmail[email]; ok {
			cp.CreatedAt = existing.CreatedAt
		} else {
			cp.CreatedAt = time.Now()
		}
	}
	r.byEmail[email] = &cp
	r.byID[p.AccountID] = email
	return nil
}

func (r *Repo) UpdateAccountID(ctx context.Context, email, newAccountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.NormalizeEmail(email)
	p, ok := r.byEmail[key]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, p.AccountID)
	p.AccountID = newAccountID
	p.UpdatedAt = time.Now()
	r.byID[newAccountID] = key
	return nil
}
