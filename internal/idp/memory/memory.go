// Package memory implements an in-process IdP backend.
//
// Selected with idp.mode "memory": used for local development and for
// tests that need to observe the exact call sequence the reconciliation
// core performs against the backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

// Call is one recorded backend operation, for ordering assertions.
type Call struct {
	Op        string // "delete" | "attach" | "mint" | "create" | "update_credentials"
	AccountID string
	Kind      domain.ProviderKind
}

type account struct {
	domain.Account
	passwordHash string
}

// Backend implements repository.IdPBackend in memory.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]*account
	order    []string // creation order, for stable enumeration
	bridges  map[string]string
	calls    []Call

	now func() time.Time
}

var _ repository.IdPBackend = (*Backend)(nil)

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		accounts: make(map[string]*account),
		bridges:  make(map[string]string),
		now:      time.Now,
	}
}

// Calls returns the recorded mutation calls in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// ResetCalls clears the call log.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Seed inserts an account as-is, with an optional plaintext password for
// the password provider record. Returns the account id.
func (b *Backend) Seed(acc domain.Account, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = b.now()
	}
	a := &account{Account: acc}
	if password != "" {
		a.passwordHash, _ = hashPassword(password)
	}
	b.accounts[acc.ID] = a
	b.order = append(b.order, acc.ID)
	return acc.ID
}

// VerifyPassword checks a plaintext password against the stored hash.
func (b *Backend) VerifyPassword(accountID, plain string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[accountID]
	if !ok || a.passwordHash == "" {
		return false
	}
	return verifyPassword(plain, a.passwordHash)
}

func (b *Backend) LookupAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	want := domain.NormalizeEmail(email)
	if want == "" {
		return nil, repository.ErrNotFound
	}
	for _, id := range b.order {
		a, ok := b.accounts[id]
		if !ok {
			continue
		}
		// Top-level field only, like a real backend's indexed lookup.
		if domain.NormalizeEmail(a.Email) == want {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (b *Backend) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAccount(a), nil
}

func (b *Backend) ListAccounts(ctx context.Context, page, pageSize int) ([]domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pageSize <= 0 {
		pageSize = 100
	}
	start := page * pageSize
	if start >= len(b.order) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(b.order) {
		end = len(b.order)
	}

	out := make([]domain.Account, 0, end-start)
	for _, id := range b.order[start:end] {
		if a, ok := b.accounts[id]; ok {
			out = append(out, *copyAccount(a))
		}
	}
	return out, nil
}

func (b *Backend) CreateAccount(ctx context.Context, in repository.CreateAccountInput) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &account{Account: domain.Account{
		ID:          uuid.NewString(),
		Email:       domain.NormalizeEmail(in.Email),
		DisplayName: in.DisplayName,
		CreatedAt:   b.now(),
	}}
	b.accounts[a.ID] = a
	b.order = append(b.order, a.ID)
	b.calls = append(b.calls, Call{Op: "create", AccountID: a.ID})
	return copyAccount(a), nil
}

func (b *Backend) DeleteAccount(ctx context.Context, accountID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: "delete", AccountID: accountID})
	if _, ok := b.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	delete(b.accounts, accountID)
	for i, id := range b.order {
		if id == accountID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Backend) AttachProvider(ctx context.Context, accountID string, kind domain.ProviderKind, providerUserID, providerEmail string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: "attach", AccountID: accountID, Kind: kind})

	target, ok := b.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}

	// The provider identity stays claimed until its owning account is
	// deleted; attaching it to a second account is rejected.
	for id, a := range b.accounts {
		if !a.HasRecord(kind, providerUserID) {
			continue
		}
		if id == accountID {
			return nil // already on the target, no-op
		}
		return repository.ErrAlreadyLinked
	}

	target.ProviderRecords = append(target.ProviderRecords, domain.ProviderRecord{
		Kind:           kind,
		ProviderUserID: providerUserID,
		Email:          domain.NormalizeEmail(providerEmail),
	})
	return nil
}

func (b *Backend) MintBridgingCredential(ctx context.Context, accountID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: "mint", AccountID: accountID})
	if _, ok := b.accounts[accountID]; !ok {
		return "", repository.ErrNotFound
	}
	token := uuid.NewString()
	b.bridges[token] = accountID
	return token, nil
}

// RedeemBridgingCredential consumes a bridging token and returns the
// account id it was minted for. One-time: a second redeem fails.
func (b *Backend) RedeemBridgingCredential(ctx context.Context, token string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.bridges[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(b.bridges, token)
	return id, nil
}

func (b *Backend) UpdateAccountCredentials(ctx context.Context, accountID string, in repository.UpdateCredentialsInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: "update_credentials", AccountID: accountID})

	a, ok := b.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}

	if in.Email != nil {
		a.Email = domain.NormalizeEmail(*in.Email)
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return err
		}
		a.passwordHash = hash
		if !a.Has(domain.ProviderPassword) {
			a.ProviderRecords = append(a.ProviderRecords, domain.ProviderRecord{
				Kind:           domain.ProviderPassword,
				ProviderUserID: a.ID,
				Email:          a.Email,
			})
		}
	}
	return nil
}

func copyAccount(a *account) *domain.Account {
	out := a.Account
	out.ProviderRecords = make([]domain.ProviderRecord, len(a.ProviderRecords))
	copy(out.ProviderRecords, a.ProviderRecords)
	return &out
}
