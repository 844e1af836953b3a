// Package providers defines the provider token verification layer.
//
// Each provider kind maps to one upstream verification call (userinfo
// endpoint, or signed ID-token validation for Apple). Responses are
// normalized into one UserProfile shape regardless of the provider's
// field naming.
//
// Password-based local accounts never go through this layer.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/linkjohn/internal/domain"
)

// Verification errors. The caller maps these to its own failure surface;
// the distinction matters because EmailMissing is user-recoverable
// (grant the email scope) while TokenInvalid is not.
var (
	ErrTokenInvalid = errors.New("provider token invalid")
	ErrEmailMissing = errors.New("provider did not disclose an email")
)

// UserProfile is the normalized result of verifying a provider credential.
type UserProfile struct {
	// ProviderUserID is the stable subject identifier at the provider.
	ProviderUserID string
	Email          string
	DisplayName    string
}

// Verifier validates an access and/or ID token against one provider.
type Verifier interface {
	// Kind returns the provider kind this verifier serves.
	Kind() domain.ProviderKind

	// Verify calls the provider and returns the normalized profile.
	// Returns ErrTokenInvalid if the upstream call fails or yields no
	// usable subject id, ErrEmailMissing if no email is disclosed.
	// Pure network read: no side effects.
	Verify(ctx context.Context, accessToken, idToken string) (*UserProfile, error)
}

// Config contains the configuration for a verifier instance.
type Config struct {
	// Endpoint overrides the provider's default userinfo/JWKS URL (tests).
	Endpoint string

	// Timeout bounds each upstream call. Default 10s.
	Timeout time.Duration
}

// EffectiveTimeout returns the configured timeout or the default.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 10 * time.Second
}
