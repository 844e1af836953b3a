package memory

import (
	"context"
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
)

func TestAttachProvider_ClaimSemantics(t *testing.T) {
	b := New()
	ctx := context.Background()

	a := b.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		{Kind: domain.ProviderGoogle, ProviderUserID: "g1", Email: "u@x.com"},
	}}, "")
	other := b.Seed(domain.Account{}, "")

	// claimed by a live account -> rejected elsewhere
	err := b.AttachProvider(ctx, other, domain.ProviderGoogle, "g1", "u@x.com")
	if !repository.IsAlreadyLinked(err) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}

	// re-attach to the owner is a no-op
	if err := b.AttachProvider(ctx, a, domain.ProviderGoogle, "g1", "u@x.com"); err != nil {
		t.Fatalf("re-attach to owner: %v", err)
	}
	acc, _ := b.GetAccount(ctx, a)
	if len(acc.ProviderRecords) != 1 {
		t.Fatalf("re-attach duplicated the record: %+v", acc.ProviderRecords)
	}

	// once the owner is deleted the identity is claimable again
	if err := b.DeleteAccount(ctx, a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.AttachProvider(ctx, other, domain.ProviderGoogle, "g1", "u@x.com"); err != nil {
		t.Fatalf("attach after owner deleted: %v", err)
	}
}

func TestDeleteAccount_NotFound(t *testing.T) {
	b := New()
	if err := b.DeleteAccount(context.Background(), "ghost"); !repository.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAccounts_StableOrderAndPaging(t *testing.T) {
	b := New()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, b.Seed(domain.Account{}, ""))
	}

	var got []string
	for page := 0; ; page++ {
		accs, err := b.ListAccounts(ctx, page, 2)
		if err != nil {
			t.Fatalf("ListAccounts: %v", err)
		}
		if len(accs) == 0 {
			break
		}
		for _, a := range accs {
			got = append(got, a.ID)
		}
	}
	if len(got) != len(ids) {
		t.Fatalf("enumerated %d accounts, want %d", len(got), len(ids))
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("order mismatch at %d: got %s want %s", i, got[i], ids[i])
		}
	}
}

func TestLookupAccountByEmail_TopLevelOnly(t *testing.T) {
	b := New()
	ctx := context.Background()

	b.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		{Kind: domain.ProviderGoogle, ProviderUserID: "g1", Email: "u@x.com"},
	}}, "")

	// provider-record emails are deliberately not indexed here
	if _, err := b.LookupAccountByEmail(ctx, "u@x.com"); !repository.IsNotFound(err) {
		t.Fatalf("expected not-found for provider-only email, got %v", err)
	}

	id := b.Seed(domain.Account{Email: "v@y.com"}, "")
	acc, err := b.LookupAccountByEmail(ctx, "V@Y.com")
	if err != nil {
		t.Fatalf("LookupAccountByEmail: %v", err)
	}
	if acc.ID != id {
		t.Fatalf("got %s, want %s", acc.ID, id)
	}
}

func TestUpdateAccountCredentials_AddsPasswordRecord(t *testing.T) {
	b := New()
	ctx := context.Background()

	id := b.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		{Kind: domain.ProviderGoogle, ProviderUserID: "g1", Email: "u@x.com"},
	}}, "")

	email := "u@x.com"
	pw := "correct horse"
	if err := b.UpdateAccountCredentials(ctx, id, repository.UpdateCredentialsInput{Email: &email, Password: &pw}); err != nil {
		t.Fatalf("UpdateAccountCredentials: %v", err)
	}

	acc, _ := b.GetAccount(ctx, id)
	if acc.Email != "u@x.com" {
		t.Fatalf("email = %q", acc.Email)
	}
	if !acc.Has(domain.ProviderPassword) {
		t.Fatal("expected a password provider record")
	}
	if !b.VerifyPassword(id, pw) {
		t.Fatal("password should verify")
	}
	if b.VerifyPassword(id, "wrong") {
		t.Fatal("wrong password should not verify")
	}

	// setting again does not duplicate the record
	if err := b.UpdateAccountCredentials(ctx, id, repository.UpdateCredentialsInput{Password: &pw}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	acc, _ = b.GetAccount(ctx, id)
	count := 0
	for _, r := range acc.ProviderRecords {
		if r.Kind == domain.ProviderPassword {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("password record duplicated %d times", count)
	}
}

func TestBridgingCredential_OneTime(t *testing.T) {
	b := New()
	ctx := context.Background()

	id := b.Seed(domain.Account{}, "")
	token, err := b.MintBridgingCredential(ctx, id)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	got, err := b.RedeemBridgingCredential(ctx, token)
	if err != nil || got != id {
		t.Fatalf("redeem = (%s, %v), want (%s, nil)", got, err, id)
	}
	if _, err := b.RedeemBridgingCredential(ctx, token); !repository.IsNotFound(err) {
		t.Fatalf("second redeem should fail, got %v", err)
	}
}
