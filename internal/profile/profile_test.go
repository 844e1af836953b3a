package profile

import (
	"context"
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/profile/memory"
)

func TestSync_CreatesRow(t *testing.T) {
	repo := memory.New()
	svc := NewService(repo)

	res, err := svc.Sync(context.Background(), "acc-1", "U@X.com", "U")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Degraded {
		t.Fatal("Degraded = true, want false")
	}
	if res.Profile.Email != "u@x.com" {
		t.Errorf("Email = %q, want %q", res.Profile.Email, "u@x.com")
	}

	got, err := repo.FindByAccountID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("FindByAccountID: %v", err)
	}
	if got.Email != "u@x.com" || got.DisplayName != "U" {
		t.Errorf("row = %+v", got)
	}
}

func TestSync_Idempotent(t *testing.T) {
	repo := memory.New()
	svc := NewService(repo)

	if _, err := svc.Sync(context.Background(), "acc-1", "u@x.com", "U"); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if _, err := svc.Sync(context.Background(), "acc-1", "u@x.com", "U2"); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	got, err := repo.FindByEmail(context.Background(), "u@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.DisplayName != "U2" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "U2")
	}
}

func TestSync_MigratesRowToNewAccount(t *testing.T) {
	repo := memory.New()
	svc := NewService(repo)

	if _, err := svc.Sync(context.Background(), "acc-old", "u@x.com", "U"); err != nil {
		t.Fatalf("seed Sync: %v", err)
	}

	// a merge made acc-new canonical for the email
	res, err := svc.Sync(context.Background(), "acc-new", "u@x.com", "U")
	if err != nil {
		t.Fatalf("Sync after merge: %v", err)
	}
	if res.Degraded {
		t.Fatal("Degraded = true, want false")
	}

	got, err := repo.FindByEmail(context.Background(), "u@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.AccountID != "acc-new" {
		t.Errorf("AccountID = %q, want %q", got.AccountID, "acc-new")
	}
	if _, err := repo.FindByAccountID(context.Background(), "acc-old"); err == nil {
		t.Error("old account id still resolves a row")
	}
}

func TestSync_NoEmailIsDegraded(t *testing.T) {
	repo := memory.New()
	svc := NewService(repo)

	res, err := svc.Sync(context.Background(), "acc-1", "", "U")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Degraded {
		t.Fatal("Degraded = false, want true")
	}
	if res.Profile != nil {
		t.Errorf("Profile = %+v, want nil", res.Profile)
	}
	if svc.Known(context.Background(), "acc-1") {
		t.Error("Known = true after degraded sync")
	}
}

func TestKnown(t *testing.T) {
	repo := memory.New()
	svc := NewService(repo)

	if svc.Known(context.Background(), "acc-1") {
		t.Fatal("Known = true before any sync")
	}
	if _, err := svc.Sync(context.Background(), "acc-1", "u@x.com", ""); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !svc.Known(context.Background(), "acc-1") {
		t.Fatal("Known = false after sync")
	}
}
