// Package google implements the Google userinfo verifier.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/providers"
)

const userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Verifier calls Google's OIDC userinfo endpoint with a bearer token.
type Verifier struct {
	endpoint string
	http     *http.Client
}

// Factory creates a new Google verifier.
func Factory(cfg providers.Config) (providers.Verifier, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = userInfoURL
	}
	return &Verifier{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.EffectiveTimeout()},
	}, nil
}

// Kind returns the provider kind.
func (v *Verifier) Kind() domain.ProviderKind { return domain.ProviderGoogle }

type userInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verify fetches the userinfo document for accessToken.
func (v *Verifier) Verify(ctx context.Context, accessToken, idToken string) (*providers.UserProfile, error) {
	if accessToken == "" {
		return nil, providers.ErrTokenInvalid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", providers.ErrTokenInvalid, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	if info.Sub == "" {
		return nil, providers.ErrTokenInvalid
	}
	if info.Email == "" {
		return nil, providers.ErrEmailMissing
	}

	return &providers.UserProfile{
		ProviderUserID: info.Sub,
		Email:          info.Email,
		DisplayName:    info.Name,
	}, nil
}
