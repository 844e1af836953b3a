// Package verification implements the short-lived, single-use code store
// that gates adding a password to a pre-existing social-only account.
//
// Codes are 6-digit numeric strings keyed by lower-cased email, with a
// 5 minute TTL by default. The store is intentionally not durable: a
// process restart (memory driver) loses pending codes and the user
// restarts the add-password flow.
package verification

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/dropDatabas3/linkjohn/internal/cache"
	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

const (
	// DefaultTTL is the code lifetime.
	DefaultTTL = 5 * time.Minute

	// CodeLength is the number of digits in an issued code.
	CodeLength = 6

	keyPrefix = "vcode:"
)

type entry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store issues and consumes verification codes on top of a cache.Client.
// Issue and Consume are the only two operations; both are atomic with
// respect to each other (no half-written code is ever observable).
type Store struct {
	mu  sync.Mutex
	kv  cache.Client
	ttl time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default code TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store backed by kv.
func NewStore(kv cache.Client, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a fresh code for email, overwriting any unconsumed prior
// code for the same email, and returns it for out-of-band delivery.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := randomCode(CodeLength)
	if err != nil {
		return "", err
	}

	e := entry{
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	if err := s.kv.Set(ctx, key(email), string(raw), s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Consume returns true and deletes the stored entry iff an unexpired entry
// exists for email and its code equals suppliedCode exactly. Every other
// case returns false without distinguishing why.
func (s *Store) Consume(ctx context.Context, email, suppliedCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.From(ctx).With(logger.Component("verification.store"))

	raw, err := s.kv.Get(ctx, key(email))
	if err != nil {
		if !cache.IsNotFound(err) {
			log.Warn("code lookup failed", logger.Err(err), logger.EmailMasked(email))
		}
		return false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		log.Warn("stored code unreadable", logger.Err(err), logger.EmailMasked(email))
		_ = s.kv.Delete(ctx, key(email))
		return false
	}

	// Lazy expiry check: the backend TTL should already have dropped the
	// entry, but drivers without server-side expiry rely on this.
	if s.now().After(e.ExpiresAt) {
		_ = s.kv.Delete(ctx, key(email))
		return false
	}

	if e.Code != suppliedCode {
		return false
	}

	// Single use: delete before reporting success.
	_ = s.kv.Delete(ctx, key(email))
	return true
}

// Sweep purges expired-but-unconsumed entries from the backend.
// Hygiene only: Consume already rejects expired entries.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	return s.kv.Purge(ctx)
}

// Run sweeps periodically until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	log := logger.From(ctx).With(logger.Component("verification.store"))

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Warn("sweep failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired codes purged", logger.Count(n))
			}
		}
	}
}

func key(email string) string {
	return keyPrefix + domain.NormalizeEmail(email)
}

func randomCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	s := n.String()
	for len(s) < digits {
		s = "0" + s
	}
	return s, nil
}
