package reconcile

import (
	"context"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

const (
	defaultScanPageSize  = 100
	defaultScanPageLimit = 20
)

// Lookup finds accounts in the IdP backend by effective email or by an
// attached provider identity.
//
// The backend's indexed lookup only covers the top-level email field, so
// an account whose email lives solely on a provider record is found by
// enumerating accounts and deriving each one's effective email. The scan
// is explicitly bounded: past the page cap the account is reported as
// not found and a warning is logged. Acceptable at the small scale this
// service targets; a backend-side indexed provider-email query should
// replace it before the account table grows.
type Lookup struct {
	idp       repository.IdPBackend
	pageSize  int
	pageLimit int
}

// NewLookup creates a Lookup. pageSize/pageLimit <= 0 take defaults.
func NewLookup(idp repository.IdPBackend, pageSize, pageLimit int) *Lookup {
	if pageSize <= 0 {
		pageSize = defaultScanPageSize
	}
	if pageLimit <= 0 {
		pageLimit = defaultScanPageLimit
	}
	return &Lookup{idp: idp, pageSize: pageSize, pageLimit: pageLimit}
}

// FindAccountByEmail returns the one account whose effective email equals
// email, excluding excludeAccountID (pass "" to exclude nothing).
// Returns repository.ErrNotFound when no account matches.
func (l *Lookup) FindAccountByEmail(ctx context.Context, email, excludeAccountID string) (*domain.Account, error) {
	log := logger.From(ctx).With(logger.Component("reconcile.lookup"))

	want := domain.NormalizeEmail(email)
	if want == "" {
		return nil, repository.ErrNotFound
	}

	// Fast path: indexed lookup on the top-level field.
	direct, err := l.idp.LookupAccountByEmail(ctx, want)
	switch {
	case err == nil:
		if direct.ID != excludeAccountID {
			return direct, nil
		}
		// The only indexed hit is excluded; another account may still
		// match through a provider email.
	case !repository.IsNotFound(err):
		return nil, err
	}

	// Fallback: bounded enumeration comparing effective emails.
	var match *domain.Account
	for page := 0; page < l.pageLimit; page++ {
		accounts, err := l.idp.ListAccounts(ctx, page, l.pageSize)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			break
		}
		for i := range accounts {
			a := &accounts[i]
			if a.ID == excludeAccountID {
				continue
			}
			if a.EffectiveEmail() != want {
				continue
			}
			if match == nil {
				match = a
				continue
			}
			// Should not occur given the merge invariants; surfaced
			// loudly instead of silently picking one.
			log.Warn("multiple accounts share one effective email",
				logger.EmailMasked(want),
				logger.String("first_account_id", match.ID),
				logger.String("other_account_id", a.ID),
			)
		}
		if len(accounts) < l.pageSize {
			break
		}
		if page == l.pageLimit-1 {
			log.Warn("email scan page cap reached",
				logger.EmailMasked(want),
				logger.Int("page_limit", l.pageLimit),
			)
		}
	}

	if match == nil {
		return nil, repository.ErrNotFound
	}
	return match, nil
}

// FindAccountByProvider returns the account holding the provider record
// (kind, providerUserID), via the same bounded enumeration.
func (l *Lookup) FindAccountByProvider(ctx context.Context, kind domain.ProviderKind, providerUserID string) (*domain.Account, error) {
	log := logger.From(ctx).With(logger.Component("reconcile.lookup"))

	if providerUserID == "" {
		return nil, repository.ErrNotFound
	}

	for page := 0; page < l.pageLimit; page++ {
		accounts, err := l.idp.ListAccounts(ctx, page, l.pageSize)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			break
		}
		for i := range accounts {
			if accounts[i].HasRecord(kind, providerUserID) {
				return &accounts[i], nil
			}
		}
		if len(accounts) < l.pageSize {
			break
		}
		if page == l.pageLimit-1 {
			log.Warn("provider scan page cap reached",
				logger.Provider(string(kind)),
				logger.Int("page_limit", l.pageLimit),
			)
		}
	}
	return nil, repository.ErrNotFound
}
