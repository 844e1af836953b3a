// Package reconcile implements the account-identity reconciliation core:
// the decision engine that classifies a just-authenticated account against
// a duplicate sharing its effective email, the merge executor that carries
// out the decided merge against the IdP backend, and the service that
// orchestrates both behind the inbound operations.
package reconcile

import (
	"github.com/dropDatabas3/linkjohn/internal/domain"
)

// Action is what the engine decided to do.
type Action string

const (
	// ActionSignIn: no reconciliation needed, proceed with normal auth.
	ActionSignIn Action = "signin"

	// ActionMergeNow: merge loser into survivor immediately.
	ActionMergeNow Action = "merge_now"

	// ActionRequireVerification: delete the just-created password account
	// and demand an emailed code before a password may be added.
	ActionRequireVerification Action = "require_verification"
)

// Decision is the engine's output. Survivor/Loser are set for MergeNow
// and RequireVerification; Email and ExistingProviderKinds only for
// RequireVerification.
type Decision struct {
	Action Action

	// Reason is a short stable label for logs and metrics.
	Reason string

	Survivor *domain.Account
	Loser    *domain.Account

	Email                 string
	ExistingProviderKinds []domain.ProviderKind
}

// Decide classifies the situation. Pure function: no I/O, no mutation.
//
// current is the account that just authenticated (or was just created),
// duplicate is another account sharing current's effective email (nil if
// none), newlyCreated says whether current was created by this very
// sign-in, and trigger is the provider kind that initiated the check.
//
// The cases are mutually exclusive and evaluated in precedence order:
//
//  1. no duplicate                          -> SignIn
//  2. pre-existing current holds trigger    -> SignIn (idempotent re-auth)
//  3. current social-only, dup has password -> MergeNow, dup survives
//  4. current has password, dup social-only -> RequireVerification
//  5. both social-only                      -> MergeNow, dup survives
//  6. anything else                         -> SignIn
//
// Case 4 exists because anyone who merely knows an email address could
// otherwise register a password and capture an account that was protected
// by control of an OAuth-linked inbox. Case 6 covers two password-bearing
// accounts sharing an email, which this engine does not try to merge.
func Decide(current, duplicate *domain.Account, newlyCreated bool, trigger domain.ProviderKind) Decision {
	// Case 1
	if duplicate == nil {
		return Decision{Action: ActionSignIn, Reason: "no_duplicate"}
	}

	// Case 2
	if !newlyCreated && trigger != "" && current.Has(trigger) {
		return Decision{Action: ActionSignIn, Reason: "idempotent_reauth"}
	}

	cur := domain.Classify(current.ProviderRecords)
	dup := domain.Classify(duplicate.ProviderRecords)

	// Case 3: the user just proved email ownership via OAuth; merging
	// into the password account is safe and keeps the password.
	if !cur.HasPassword && dup.HasPassword {
		return Decision{
			Action:   ActionMergeNow,
			Reason:   "social_into_password",
			Survivor: duplicate,
			Loser:    current,
		}
	}

	// Case 4
	if cur.HasPassword && !dup.HasPassword && dup.HasSocial {
		return Decision{
			Action:                ActionRequireVerification,
			Reason:                "password_needs_proof",
			Survivor:              duplicate,
			Loser:                 current,
			Email:                 duplicate.EffectiveEmail(),
			ExistingProviderKinds: duplicate.SocialKinds(),
		}
	}

	// Case 5: the pre-existing account stays canonical so references to
	// its id keep working.
	if cur.SocialOnly() && dup.SocialOnly() {
		return Decision{
			Action:   ActionMergeNow,
			Reason:   "social_into_social",
			Survivor: duplicate,
			Loser:    current,
		}
	}

	// Case 6
	return Decision{Action: ActionSignIn, Reason: "unhandled_pair"}
}
