package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, APIKey: "k-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New with empty BaseURL should fail")
	}
}

func TestLookupAccountByEmail(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k-test" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/v1/accounts/lookup" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "u@x.com" {
			t.Errorf("email = %q, want %q", got, "u@x.com")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "acc-1",
			"email": "u@x.com",
			"provider_records": []map[string]string{
				{"kind": "password", "provider_user_id": "local"},
			},
		})
	}))

	acc, err := c.LookupAccountByEmail(context.Background(), "U@X.com")
	if err != nil {
		t.Fatalf("LookupAccountByEmail: %v", err)
	}
	if acc.ID != "acc-1" {
		t.Errorf("ID = %q, want %q", acc.ID, "acc-1")
	}
	if !acc.Has(domain.ProviderPassword) {
		t.Error("password record lost in decode")
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetAccount(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAttachProvider_Conflict(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	err := c.AttachProvider(context.Background(), "acc-1", domain.ProviderGoogle, "g1", "u@x.com")
	if !errors.Is(err, repository.ErrAlreadyLinked) {
		t.Fatalf("err = %v, want ErrAlreadyLinked", err)
	}
}

func TestListAccounts_Paging(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "50" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{{"id": "acc-7"}},
		})
	}))

	accounts, err := c.ListAccounts(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acc-7" {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestCreateAndDelete(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/accounts":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["display_name"] != "U" {
				t.Errorf("display_name = %q", body["display_name"])
			}
			if _, ok := body["email"]; ok {
				t.Error("email should be omitted when empty")
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "acc-9"})
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/accounts/acc-9":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))

	acc, err := c.CreateAccount(context.Background(), repository.CreateAccountInput{DisplayName: "U"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acc.ID != "acc-9" {
		t.Errorf("ID = %q, want %q", acc.ID, "acc-9")
	}
	if err := c.DeleteAccount(context.Background(), "acc-9"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
}

func TestMintBridgingCredential(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acc-1/bridge" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "bt-1"})
	}))

	tok, err := c.MintBridgingCredential(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("MintBridgingCredential: %v", err)
	}
	if tok != "bt-1" {
		t.Errorf("token = %q, want %q", tok, "bt-1")
	}
}

func TestMintBridgingCredential_EmptyToken(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))

	if _, err := c.MintBridgingCredential(context.Background(), "acc-1"); err == nil {
		t.Fatal("empty token should fail")
	}
}

func TestUpdateAccountCredentials(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/accounts/acc-1/credentials" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "u@x.com" || body["password"] != "pw123456" {
			t.Errorf("body = %+v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	email, pw := "U@X.com", "pw123456"
	err := c.UpdateAccountCredentials(context.Background(), "acc-1", repository.UpdateCredentialsInput{
		Email:    &email,
		Password: &pw,
	})
	if err != nil {
		t.Fatalf("UpdateAccountCredentials: %v", err)
	}
}

func TestUnavailableBackend(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.GetAccount(context.Background(), "acc-1"); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
