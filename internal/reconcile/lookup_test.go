package reconcile

import (
	"context"
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	idpmemory "github.com/dropDatabas3/linkjohn/internal/idp/memory"
)

func TestFindAccountByEmail_DirectHit(t *testing.T) {
	idp := idpmemory.New()
	id := idp.Seed(domain.Account{Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}, "")

	got, err := NewLookup(idp, 0, 0).FindAccountByEmail(context.Background(), "U@X.com", "")
	if err != nil {
		t.Fatalf("FindAccountByEmail: %v", err)
	}
	if got.ID != id {
		t.Fatalf("got %s, want %s", got.ID, id)
	}
}

func TestFindAccountByEmail_ProviderEmailFallback(t *testing.T) {
	// The email lives only on a provider record, so the indexed lookup
	// misses and the bounded scan has to find it.
	idp := idpmemory.New()
	idp.Seed(domain.Account{Email: "other@y.com", ProviderRecords: []domain.ProviderRecord{password()}}, "")
	id := idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}, "")

	got, err := NewLookup(idp, 1, 10).FindAccountByEmail(context.Background(), "u@x.com", "")
	if err != nil {
		t.Fatalf("FindAccountByEmail: %v", err)
	}
	if got.ID != id {
		t.Fatalf("got %s, want %s", got.ID, id)
	}
}

func TestFindAccountByEmail_ExcludesCaller(t *testing.T) {
	idp := idpmemory.New()
	self := idp.Seed(domain.Account{Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}, "")

	lookup := NewLookup(idp, 0, 0)
	if _, err := lookup.FindAccountByEmail(context.Background(), "u@x.com", self); !repository.IsNotFound(err) {
		t.Fatalf("expected not-found when the only match is excluded, got %v", err)
	}

	other := idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderApple, "a1", "u@x.com"),
	}}, "")
	got, err := lookup.FindAccountByEmail(context.Background(), "u@x.com", self)
	if err != nil {
		t.Fatalf("FindAccountByEmail: %v", err)
	}
	if got.ID != other {
		t.Fatalf("got %s, want the other account %s", got.ID, other)
	}
}

func TestFindAccountByEmail_MultiMatchPicksFirst(t *testing.T) {
	// Should not normally occur, but the pick must be deterministic.
	idp := idpmemory.New()
	first := idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "dup@x.com"),
	}}, "")
	idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderApple, "a1", "dup@x.com"),
	}}, "")

	got, err := NewLookup(idp, 10, 10).FindAccountByEmail(context.Background(), "dup@x.com", "")
	if err != nil {
		t.Fatalf("FindAccountByEmail: %v", err)
	}
	if got.ID != first {
		t.Fatalf("got %s, want first-seeded %s", got.ID, first)
	}
}

func TestFindAccountByEmail_PageCap(t *testing.T) {
	idp := idpmemory.New()
	for i := 0; i < 5; i++ {
		idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
			social(domain.ProviderGoogle, "g"+string(rune('0'+i)), "")},
		}, "")
	}
	// match sits past the scan cap (pageSize 1, limit 2)
	idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "gx", "far@x.com"),
	}}, "")

	if _, err := NewLookup(idp, 1, 2).FindAccountByEmail(context.Background(), "far@x.com", ""); !repository.IsNotFound(err) {
		t.Fatalf("expected not-found past the page cap, got %v", err)
	}
}

func TestFindAccountByProvider(t *testing.T) {
	idp := idpmemory.New()
	id := idp.Seed(domain.Account{ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}, "")

	lookup := NewLookup(idp, 0, 0)
	got, err := lookup.FindAccountByProvider(context.Background(), domain.ProviderGoogle, "g1")
	if err != nil {
		t.Fatalf("FindAccountByProvider: %v", err)
	}
	if got.ID != id {
		t.Fatalf("got %s, want %s", got.ID, id)
	}

	if _, err := lookup.FindAccountByProvider(context.Background(), domain.ProviderGoogle, "nope"); !repository.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := lookup.FindAccountByProvider(context.Background(), domain.ProviderGoogle, ""); !repository.IsNotFound(err) {
		t.Fatalf("empty subject id should be not-found, got %v", err)
	}
}
