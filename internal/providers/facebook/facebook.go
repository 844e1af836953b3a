// Package facebook implements the Facebook Graph verifier.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/providers"
)

const graphMeURL = "https://graph.facebook.com/v19.0/me"

// Verifier calls the Graph API /me endpoint.
// Facebook takes the token as a query parameter, not a header, and
// reports the subject id under "id" instead of "sub".
type Verifier struct {
	endpoint string
	http     *http.Client
}

// Factory creates a new Facebook verifier.
func Factory(cfg providers.Config) (providers.Verifier, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = graphMeURL
	}
	return &Verifier{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.EffectiveTimeout()},
	}, nil
}

// Kind returns the provider kind.
func (v *Verifier) Kind() domain.ProviderKind { return domain.ProviderFacebook }

type graphMe struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verify fetches /me?fields=id,name,email for accessToken.
func (v *Verifier) Verify(ctx context.Context, accessToken, idToken string) (*providers.UserProfile, error) {
	if accessToken == "" {
		return nil, providers.ErrTokenInvalid
	}

	q := url.Values{}
	q.Set("fields", "id,name,email")
	q.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: graph status %d", providers.ErrTokenInvalid, resp.StatusCode)
	}

	var me graphMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	if me.ID == "" {
		return nil, providers.ErrTokenInvalid
	}
	// Email requires the "email" permission; accounts registered by phone
	// may not have one at all.
	if me.Email == "" {
		return nil, providers.ErrEmailMissing
	}

	return &providers.UserProfile{
		ProviderUserID: me.ID,
		Email:          me.Email,
		DisplayName:    me.Name,
	}, nil
}
