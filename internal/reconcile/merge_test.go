package reconcile

import (
	"context"
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	idpmemory "github.com/dropDatabas3/linkjohn/internal/idp/memory"
)

func TestMerge_DeleteStrictlyBeforeAttach(t *testing.T) {
	idp := idpmemory.New()
	loserID := idp.Seed(domain.Account{ID: "loser", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
		social(domain.ProviderApple, "a1", "u@x.com"),
	}}, "")
	survivorID := idp.Seed(domain.Account{ID: "survivor", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}, "secret")
	idp.ResetCalls()

	loser, _ := idp.GetAccount(context.Background(), loserID)
	res, err := NewExecutor(idp).Merge(context.Background(), loserID, survivorID, loser.ProviderRecords)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.BridgingToken == "" {
		t.Fatal("expected a bridging token")
	}
	if len(res.Attached) != 2 {
		t.Fatalf("attached = %v, want both social records", res.Attached)
	}

	calls := idp.Calls()
	sawDelete := false
	for _, c := range calls {
		switch c.Op {
		case "delete":
			sawDelete = true
		case "attach":
			if !sawDelete {
				t.Fatalf("attach before delete in call trace: %+v", calls)
			}
		case "mint":
			if !sawDelete {
				t.Fatalf("mint before delete in call trace: %+v", calls)
			}
		}
	}
	if !sawDelete {
		t.Fatalf("no delete recorded: %+v", calls)
	}
	// mint is last
	if calls[len(calls)-1].Op != "mint" {
		t.Fatalf("last call = %s, want mint", calls[len(calls)-1].Op)
	}

	// survivor holds password + both socials, loser is gone
	surv, err := idp.GetAccount(context.Background(), survivorID)
	if err != nil {
		t.Fatalf("survivor gone: %v", err)
	}
	if !surv.Has(domain.ProviderPassword) || !surv.Has(domain.ProviderGoogle) || !surv.Has(domain.ProviderApple) {
		t.Fatalf("survivor records = %+v", surv.ProviderRecords)
	}
	if _, err := idp.GetAccount(context.Background(), loserID); err == nil {
		t.Fatal("loser should be deleted")
	}
}

func TestMerge_NeverTransplantsPassword(t *testing.T) {
	idp := idpmemory.New()
	loserID := idp.Seed(domain.Account{ID: "loser", ProviderRecords: []domain.ProviderRecord{
		password(),
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}, "hunter2")
	survivorID := idp.Seed(domain.Account{ID: "survivor", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderFacebook, "f1", "u@x.com"),
	}}, "")

	loser, _ := idp.GetAccount(context.Background(), loserID)
	res, err := NewExecutor(idp).Merge(context.Background(), loserID, survivorID, loser.ProviderRecords)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(res.Attached) != 1 || res.Attached[0] != domain.ProviderGoogle {
		t.Fatalf("attached = %v, want only [google]", res.Attached)
	}

	surv, _ := idp.GetAccount(context.Background(), survivorID)
	if surv.Has(domain.ProviderPassword) {
		t.Fatal("password record must not be transplanted")
	}
}

func TestMerge_IdempotentUnderRetry(t *testing.T) {
	idp := idpmemory.New()
	loserID := idp.Seed(domain.Account{ID: "loser", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}, "")
	survivorID := idp.Seed(domain.Account{ID: "survivor", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}, "")

	loser, _ := idp.GetAccount(context.Background(), loserID)
	ex := NewExecutor(idp)

	if _, err := ex.Merge(context.Background(), loserID, survivorID, loser.ProviderRecords); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	// Retry after the loser is already gone: delete not-found is benign,
	// re-attach of a record the survivor already holds is a no-op.
	res, err := ex.Merge(context.Background(), loserID, survivorID, loser.ProviderRecords)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Partial() {
		t.Fatalf("retry reported failures: %+v", res.Failures)
	}

	surv, _ := idp.GetAccount(context.Background(), survivorID)
	count := 0
	for _, rec := range surv.ProviderRecords {
		if rec.Kind == domain.ProviderGoogle && rec.ProviderUserID == "g1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("google record duplicated %d times", count)
	}
}

func TestMerge_PartialFailureStillMints(t *testing.T) {
	idp := idpmemory.New()
	loserID := idp.Seed(domain.Account{ID: "loser", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
		social(domain.ProviderApple, "a1", "u@x.com"),
	}}, "")
	survivorID := idp.Seed(domain.Account{ID: "survivor", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}, "")
	// A third live account already claims (apple, a1), so that attach is
	// rejected while the google one succeeds.
	idp.Seed(domain.Account{ID: "squatter", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderApple, "a1", "other@y.com"),
	}}, "")

	loser, _ := idp.GetAccount(context.Background(), loserID)
	res, err := NewExecutor(idp).Merge(context.Background(), loserID, survivorID, loser.ProviderRecords)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !res.Partial() {
		t.Fatal("expected a partial result")
	}
	if len(res.Failures) != 1 || res.Failures[0].Record.Kind != domain.ProviderApple {
		t.Fatalf("failures = %+v, want one apple failure", res.Failures)
	}
	if len(res.Attached) != 1 || res.Attached[0] != domain.ProviderGoogle {
		t.Fatalf("attached = %v, want [google]", res.Attached)
	}
	if res.BridgingToken == "" {
		t.Fatal("partial merge must still mint the bridging token")
	}
}
