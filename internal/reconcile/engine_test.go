package reconcile

import (
	"testing"

	"github.com/dropDatabas3/linkjohn/internal/domain"
)

func social(kind domain.ProviderKind, uid, email string) domain.ProviderRecord {
	return domain.ProviderRecord{Kind: kind, ProviderUserID: uid, Email: email}
}

func password() domain.ProviderRecord {
	return domain.ProviderRecord{Kind: domain.ProviderPassword, ProviderUserID: "pw"}
}

func TestDecide_NoDuplicate(t *testing.T) {
	cur := &domain.Account{ID: "a", ProviderRecords: []domain.ProviderRecord{social(domain.ProviderGoogle, "g1", "u@x.com")}}

	d := Decide(cur, nil, true, domain.ProviderGoogle)
	if d.Action != ActionSignIn || d.Reason != "no_duplicate" {
		t.Fatalf("got (%s, %s), want (signin, no_duplicate)", d.Action, d.Reason)
	}
}

func TestDecide_IdempotentReauth(t *testing.T) {
	// Re-authenticating with a provider the pre-existing account already
	// holds never merges, whatever the duplicate looks like.
	cur := &domain.Account{ID: "a", ProviderRecords: []domain.ProviderRecord{social(domain.ProviderGoogle, "g1", "u@x.com")}}
	dup := &domain.Account{ID: "b", ProviderRecords: []domain.ProviderRecord{password()}}

	d := Decide(cur, dup, false, domain.ProviderGoogle)
	if d.Action != ActionSignIn || d.Reason != "idempotent_reauth" {
		t.Fatalf("got (%s, %s), want (signin, idempotent_reauth)", d.Action, d.Reason)
	}

	// A newly created account never takes this branch.
	d = Decide(cur, dup, true, domain.ProviderGoogle)
	if d.Action != ActionMergeNow {
		t.Fatalf("newly created account: got %s, want merge_now", d.Action)
	}
}

func TestDecide_SocialIntoPassword(t *testing.T) {
	cur := &domain.Account{ID: "a", ProviderRecords: []domain.ProviderRecord{social(domain.ProviderGoogle, "g1", "u@x.com")}}
	dup := &domain.Account{ID: "b", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}

	d := Decide(cur, dup, true, domain.ProviderGoogle)
	if d.Action != ActionMergeNow || d.Reason != "social_into_password" {
		t.Fatalf("got (%s, %s), want (merge_now, social_into_password)", d.Action, d.Reason)
	}
	if d.Survivor.ID != "b" || d.Loser.ID != "a" {
		t.Fatalf("survivor=%s loser=%s, want b/a", d.Survivor.ID, d.Loser.ID)
	}
}

func TestDecide_PasswordNeedsProof(t *testing.T) {
	cur := &domain.Account{ID: "a", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}
	dup := &domain.Account{ID: "b", ProviderRecords: []domain.ProviderRecord{
		social(domain.ProviderGoogle, "g1", "u@x.com"),
	}}

	d := Decide(cur, dup, true, domain.ProviderPassword)
	if d.Action != ActionRequireVerification || d.Reason != "password_needs_proof" {
		t.Fatalf("got (%s, %s), want (require_verification, password_needs_proof)", d.Action, d.Reason)
	}
	if d.Survivor.ID != "b" || d.Loser.ID != "a" {
		t.Fatalf("survivor=%s loser=%s, want b/a", d.Survivor.ID, d.Loser.ID)
	}
	if d.Email != "u@x.com" {
		t.Fatalf("email = %q, want u@x.com", d.Email)
	}
	if len(d.ExistingProviderKinds) != 1 || d.ExistingProviderKinds[0] != domain.ProviderGoogle {
		t.Fatalf("existing kinds = %v, want [google]", d.ExistingProviderKinds)
	}
}

func TestDecide_SocialIntoSocial_PreexistingSurvives(t *testing.T) {
	cur := &domain.Account{ID: "newer", ProviderRecords: []domain.ProviderRecord{social(domain.ProviderApple, "a1", "u@x.com")}}
	dup := &domain.Account{ID: "older", ProviderRecords: []domain.ProviderRecord{social(domain.ProviderGoogle, "g1", "u@x.com")}}

	d := Decide(cur, dup, true, domain.ProviderApple)
	if d.Action != ActionMergeNow || d.Reason != "social_into_social" {
		t.Fatalf("got (%s, %s), want (merge_now, social_into_social)", d.Action, d.Reason)
	}
	if d.Survivor.ID != "older" {
		t.Fatalf("survivor = %s, want the pre-existing account", d.Survivor.ID)
	}
}

func TestDecide_TwoPasswordAccounts_Unhandled(t *testing.T) {
	cur := &domain.Account{ID: "a", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}
	dup := &domain.Account{ID: "b", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}

	d := Decide(cur, dup, false, domain.ProviderPassword)
	if d.Action != ActionSignIn || d.Reason != "unhandled_pair" {
		t.Fatalf("got (%s, %s), want (signin, unhandled_pair)", d.Action, d.Reason)
	}
}

func TestDecide_MixedCurrentNeverMerges(t *testing.T) {
	// current carries a password next to its social record, so neither
	// the social-merge nor the verification branch applies.
	cur := &domain.Account{ID: "a", ProviderRecords: []domain.ProviderRecord{password(), social(domain.ProviderGoogle, "g1", "u@x.com")}}
	dup := &domain.Account{ID: "b", Email: "u@x.com", ProviderRecords: []domain.ProviderRecord{password()}}

	d := Decide(cur, dup, true, domain.ProviderGoogle)
	if d.Action != ActionSignIn || d.Reason != "unhandled_pair" {
		t.Fatalf("got (%s, %s), want (signin, unhandled_pair)", d.Action, d.Reason)
	}
}
