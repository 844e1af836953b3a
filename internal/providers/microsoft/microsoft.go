// Package microsoft implements the Microsoft Graph verifier.
package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/providers"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

// Verifier calls the Microsoft Graph /me endpoint with a bearer token.
type Verifier struct {
	endpoint string
	http     *http.Client
}

// Factory creates a new Microsoft verifier.
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
func (v *Verifier) Kind() domain.ProviderKind { return domain.ProviderMicrosoft }

// Graph reports the subject under "id"; the email lives in "mail" for
// work/school accounts and "userPrincipalName" for personal ones.
type graphMe struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
}

// Verify fetches the Graph profile for accessToken.
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
		return nil, fmt.Errorf("%w: graph status %d", providers.ErrTokenInvalid, resp.StatusCode)
	}

	var me graphMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}
	if me.ID == "" {
		return nil, providers.ErrTokenInvalid
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	if email == "" {
		return nil, providers.ErrEmailMissing
	}

	return &providers.UserProfile{
		ProviderUserID: me.ID,
		Email:          email,
		DisplayName:    me.DisplayName,
	}, nil
}
