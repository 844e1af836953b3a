// Package rest implements the IdP backend collaborator over a JSON
// admin API. Selected with idp.mode "rest".
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

// Client talks to the IdP admin API with a bearer API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ repository.IdPBackend = (*Client)(nil)

// Config for the REST client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per-call; default 10s
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("idp rest: base_url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Wire shapes of the admin API.

type wireRecord struct {
	Kind           string `json:"kind"`
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email,omitempty"`
}

type wireAccount struct {
	ID              string       `json:"id"`
	Email           string       `json:"email,omitempty"`
	DisplayName     string       `json:"display_name,omitempty"`
	ProviderRecords []wireRecord `json:"provider_records"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (w *wireAccount) toDomain() *domain.Account {
	a := &domain.Account{
		ID:          w.ID,
		Email:       w.Email,
		DisplayName: w.DisplayName,
		CreatedAt:   w.CreatedAt,
	}
	for _, r := range w.ProviderRecords {
		a.ProviderRecords = append(a.ProviderRecords, domain.ProviderRecord{
			Kind:           domain.ProviderKind(r.Kind),
			ProviderUserID: r.ProviderUserID,
			Email:          r.Email,
		})
	}
	return a
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("idp rest: decode: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func statusErr(status int, op string) error {
	switch status {
	case http.StatusNotFound:
		return repository.ErrNotFound
	case http.StatusConflict:
		return repository.ErrAlreadyLinked
	default:
		return fmt.Errorf("idp rest: %s: status %d", op, status)
	}
}

func (c *Client) LookupAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var w wireAccount
	path := "/v1/accounts/lookup?email=" + url.QueryEscape(domain.NormalizeEmail(email))
	status, err := c.do(ctx, http.MethodGet, path, nil, &w)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr(status, "lookup")
	}
	return w.toDomain(), nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var w wireAccount
	status, err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountID), nil, &w)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr(status, "get")
	}
	return w.toDomain(), nil
}

func (c *Client) ListAccounts(ctx context.Context, page, pageSize int) ([]domain.Account, error) {
	var out struct {
		Accounts []wireAccount `json:"accounts"`
	}
	path := fmt.Sprintf("/v1/accounts?page=%d&page_size=%d", page, pageSize)
	status, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusErr(status, "list")
	}
	accounts := make([]domain.Account, 0, len(out.Accounts))
	for i := range out.Accounts {
		accounts = append(accounts, *out.Accounts[i].toDomain())
	}
	return accounts, nil
}

func (c *Client) CreateAccount(ctx context.Context, in repository.CreateAccountInput) (*domain.Account, error) {
	body := map[string]string{}
	if in.Email != "" {
		body["email"] = domain.NormalizeEmail(in.Email)
	}
	if in.DisplayName != "" {
		body["display_name"] = in.DisplayName
	}
	var w wireAccount
	status, err := c.do(ctx, http.MethodPost, "/v1/accounts", body, &w)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusErr(status, "create")
	}
	return w.toDomain(), nil
}

func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	status, err := c.do(ctx, http.MethodDelete, "/v1/accounts/"+url.PathEscape(accountID), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusErr(status, "delete")
	}
	return nil
}

func (c *Client) AttachProvider(ctx context.Context, accountID string, kind domain.ProviderKind, providerUserID, providerEmail string) error {
	body := wireRecord{
		Kind:           string(kind),
		ProviderUserID: providerUserID,
		Email:          domain.NormalizeEmail(providerEmail),
	}
	path := "/v1/accounts/" + url.PathEscape(accountID) + "/providers"
	status, err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusCreated {
		return statusErr(status, "attach")
	}
	return nil
}

func (c *Client) MintBridgingCredential(ctx context.Context, accountID string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	path := "/v1/accounts/" + url.PathEscape(accountID) + "/bridge"
	status, err := c.do(ctx, http.MethodPost, path, nil, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", statusErr(status, "mint")
	}
	if out.Token == "" {
		return "", fmt.Errorf("idp rest: mint: empty token")
	}
	return out.Token, nil
}

func (c *Client) UpdateAccountCredentials(ctx context.Context, accountID string, in repository.UpdateCredentialsInput) error {
	body := map[string]string{}
	if in.Email != nil {
		body["email"] = domain.NormalizeEmail(*in.Email)
	}
	if in.Password != nil {
		body["password"] = *in.Password
	}
	path := "/v1/accounts/" + url.PathEscape(accountID) + "/credentials"
	status, err := c.do(ctx, http.MethodPatch, path, body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusErr(status, "update_credentials")
	}
	return nil
}
