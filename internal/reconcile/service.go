package reconcile

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	"github.com/dropDatabas3/linkjohn/internal/email"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
	"github.com/dropDatabas3/linkjohn/internal/profile"
	"github.com/dropDatabas3/linkjohn/internal/providers"
	"github.com/dropDatabas3/linkjohn/internal/verification"
)

// OutcomeAction is the caller-facing result of a reconciliation.
type OutcomeAction string

const (
	OutcomeSignIn            OutcomeAction = "signin"
	OutcomeMerged            OutcomeAction = "merged"
	OutcomeNeedsVerification OutcomeAction = "needsVerification"
)

// Outcome is what the inbound operations return to their caller.
type Outcome struct {
	Action OutcomeAction
	Reason string

	// AccountID is the account the caller should be signed in as after
	// this outcome: the current account on signin, the survivor on a
	// merge or a pending verification.
	AccountID string

	Email string

	// BridgingToken is set only on a merge: the caller's session may be
	// for an account that no longer exists, so this one-time token
	// re-establishes a session as AccountID.
	BridgingToken string

	// DidPreservePassword is true when the surviving side of a merge
	// carried a password credential.
	DidPreservePassword bool

	// ExistingProviderKinds lists the survivor's social providers when
	// verification is required, so the caller can tell the user how the
	// email is currently reachable.
	ExistingProviderKinds []domain.ProviderKind

	// PartialFailures names the provider records that could not be
	// re-attached during a merge. The merge still succeeded; the user
	// can recover each link by signing in with that provider again.
	PartialFailures []string

	// ProfileDegraded is true when the local mirror row could not be
	// persisted because no effective email was determinable.
	ProfileDegraded bool
}

// VerifierSource resolves provider token verifiers. Satisfied by
// providers.Set.
type VerifierSource interface {
	Enabled(kind domain.ProviderKind) bool
	Verifier(kind domain.ProviderKind) (providers.Verifier, error)
}

// Service orchestrates the full reconciliation flow behind the inbound
// operations: lookup, decide, merge or stage verification, profile sync.
type Service struct {
	idp       repository.IdPBackend
	lookup    *Lookup
	merger    *Executor
	codes     *verification.Store
	profiles  *profile.Service
	mail      email.Sender
	verifiers VerifierSource
}

// NewService wires a Service from its collaborators.
func NewService(
	idp repository.IdPBackend,
	lookup *Lookup,
	merger *Executor,
	codes *verification.Store,
	profiles *profile.Service,
	mail email.Sender,
	verifiers VerifierSource,
) *Service {
	return &Service{
		idp:       idp,
		lookup:    lookup,
		merger:    merger,
		codes:     codes,
		profiles:  profiles,
		mail:      mail,
		verifiers: verifiers,
	}
}

// CheckInput identifies the account to reconcile.
//
// TriggerProvider and NewAccount are hints from the caller (it knows
// which provider just authenticated and whether the account was created
// by this very sign-in). When absent they are derived: the trigger from
// the account's most recently attached provider record, newness from
// whether a local mirror row already exists.
type CheckInput struct {
	AccountID       string
	TriggerProvider domain.ProviderKind
	NewAccount      *bool
}

// CheckAndReconcile runs the decision procedure for the given account
// and applies the decided action.
//
// No mutation happens before the first destructive step of a merge, so
// any error up to that point leaves the backend untouched and the whole
// call can simply be retried.
func (s *Service) CheckAndReconcile(ctx context.Context, in CheckInput) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Component("reconcile.service"),
		logger.AccountID(in.AccountID),
	)

	current, err := s.idp.GetAccount(ctx, in.AccountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	trigger := in.TriggerProvider
	if trigger == "" {
		trigger, _ = current.LastProvider()
	}
	newlyCreated := !s.profiles.Known(ctx, current.ID)
	if in.NewAccount != nil {
		newlyCreated = *in.NewAccount
	}

	var duplicate *domain.Account
	if email := current.EffectiveEmail(); email != "" {
		duplicate, err = s.lookup.FindAccountByEmail(ctx, email, current.ID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("find duplicate by email: %w", err)
		}
	}

	d := Decide(current, duplicate, newlyCreated, trigger)
	log.Info("reconciliation decided",
		logger.Action(string(d.Action)),
		logger.String("reason", d.Reason),
		logger.Provider(string(trigger)),
		logger.Bool("newly_created", newlyCreated),
	)
	return s.apply(ctx, current, d)
}

// ExchangeAndReconcile verifies a provider credential, resolves or
// creates the account it belongs to, and reconciles it. This is the
// social sign-in entry point: the caller holds only tokens, not yet an
// account id.
func (s *Service) ExchangeAndReconcile(ctx context.Context, kind domain.ProviderKind, accessToken, idToken string) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Component("reconcile.service"),
		logger.Provider(string(kind)),
	)

	if !s.verifiers.Enabled(kind) {
		return nil, ErrProviderDisabled
	}
	v, err := s.verifiers.Verifier(kind)
	if err != nil {
		return nil, fmt.Errorf("resolve verifier: %w", err)
	}
	prof, err := v.Verify(ctx, accessToken, idToken)
	if err != nil {
		return nil, err
	}

	// The provider identity may already belong to an account.
	current, err := s.lookup.FindAccountByProvider(ctx, kind, prof.ProviderUserID)
	switch {
	case err == nil:
		f := false
		return s.CheckAndReconcile(ctx, CheckInput{
			AccountID:       current.ID,
			TriggerProvider: kind,
			NewAccount:      &f,
		})
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("find account by provider: %w", err)
	}

	// First sign-in with this credential: create the account with the
	// provider record attached, then reconcile it against any duplicate.
	// The email lives on the provider record only; the top-level field
	// stays empty until the user sets credentials explicitly.
	acc, err := s.idp.CreateAccount(ctx, repository.CreateAccountInput{DisplayName: prof.DisplayName})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.idp.AttachProvider(ctx, acc.ID, kind, prof.ProviderUserID, prof.Email); err != nil {
		return nil, fmt.Errorf("attach provider to new account: %w", err)
	}
	log.Info("account created for new provider credential", logger.AccountID(acc.ID))

	t := true
	return s.CheckAndReconcile(ctx, CheckInput{
		AccountID:       acc.ID,
		TriggerProvider: kind,
		NewAccount:      &t,
	})
}

func (s *Service) apply(ctx context.Context, current *domain.Account, d Decision) (*Outcome, error) {
	reconcileOutcomes.WithLabelValues(string(d.Action), d.Reason).Inc()

	switch d.Action {
	case ActionSignIn:
		out := &Outcome{
			Action:    OutcomeSignIn,
			Reason:    d.Reason,
			AccountID: current.ID,
			Email:     current.EffectiveEmail(),
		}
		s.syncProfile(ctx, out, current.ID, current.EffectiveEmail(), current.DisplayName)
		return out, nil

	case ActionMergeNow:
		res, err := s.merger.Merge(ctx, d.Loser.ID, d.Survivor.ID, d.Loser.ProviderRecords)
		if err != nil {
			return nil, err
		}
		email := d.Survivor.EffectiveEmail()
		if email == "" {
			email = d.Loser.EffectiveEmail()
		}
		name := d.Survivor.DisplayName
		if name == "" {
			name = d.Loser.DisplayName
		}
		out := &Outcome{
			Action:              OutcomeMerged,
			Reason:              d.Reason,
			AccountID:           d.Survivor.ID,
			Email:               email,
			BridgingToken:       res.BridgingToken,
			DidPreservePassword: domain.Classify(d.Survivor.ProviderRecords).HasPassword,
		}
		for _, f := range res.Failures {
			out.PartialFailures = append(out.PartialFailures,
				fmt.Sprintf("%s: %v", f.Record.Kind, f.Err))
		}
		s.syncProfile(ctx, out, d.Survivor.ID, email, name)
		return out, nil

	case ActionRequireVerification:
		// The just-created password account must not persist unverified:
		// left alive it would resurface the duplicate-email conflict on
		// every retry. Not-found means a concurrent attempt got here
		// first, which is fine.
		if err := s.idp.DeleteAccount(ctx, d.Loser.ID); err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("delete unverified password account: %w", err)
		}
		logger.From(ctx).Info("unverified password account removed, code required",
			logger.Component("reconcile.service"),
			logger.AccountID(d.Loser.ID),
			logger.EmailMasked(d.Email),
		)
		return &Outcome{
			Action:                OutcomeNeedsVerification,
			Reason:                d.Reason,
			AccountID:             d.Survivor.ID,
			Email:                 d.Email,
			ExistingProviderKinds: d.ExistingProviderKinds,
		}, nil
	}

	return nil, fmt.Errorf("unknown action %q", d.Action)
}

// IssueVerificationCode issues and emails a code for the add-password
// flow. Fails with ErrAccountNotFound when no account carries the email,
// and with ErrAlreadyHasPassword when the account needs no verification.
func (s *Service) IssueVerificationCode(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Component("reconcile.service"),
		logger.EmailMasked(emailAddr),
	)

	acc, err := s.lookup.FindAccountByEmail(ctx, emailAddr, "")
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find account by email: %w", err)
	}
	if domain.Classify(acc.ProviderRecords).HasPassword {
		return ErrAlreadyHasPassword
	}

	code, err := s.codes.Issue(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}
	if err := s.mail.SendVerificationCode(ctx, domain.NormalizeEmail(emailAddr), code, verification.DefaultTTL); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	log.Info("verification code issued", logger.AccountID(acc.ID))
	return nil
}

// ConsumeVerificationAndSetPassword redeems a code and attaches a
// password credential (and the now-proven email) to the social-only
// account that owns the email.
func (s *Service) ConsumeVerificationAndSetPassword(ctx context.Context, emailAddr, code, newPassword string) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Component("reconcile.service"),
		logger.EmailMasked(emailAddr),
	)

	if !s.codes.Consume(ctx, emailAddr, code) {
		return nil, ErrInvalidOrExpiredCode
	}

	acc, err := s.lookup.FindAccountByEmail(ctx, emailAddr, "")
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	if domain.Classify(acc.ProviderRecords).HasPassword {
		return nil, ErrAlreadyHasPassword
	}

	normalized := domain.NormalizeEmail(emailAddr)
	if err := s.idp.UpdateAccountCredentials(ctx, acc.ID, repository.UpdateCredentialsInput{
		Email:    &normalized,
		Password: &newPassword,
	}); err != nil {
		return nil, fmt.Errorf("set password: %w", err)
	}
	log.Info("password attached after email verification", logger.AccountID(acc.ID))

	out := &Outcome{
		Action:    OutcomeSignIn,
		Reason:    "password_verified",
		AccountID: acc.ID,
		Email:     normalized,
	}
	s.syncProfile(ctx, out, acc.ID, normalized, acc.DisplayName)
	return out, nil
}

// syncProfile updates the local mirror best-effort: a mirror failure
// never fails the authentication flow, it is logged and reported as
// degraded.
func (s *Service) syncProfile(ctx context.Context, out *Outcome, accountID, email, displayName string) {
	res, err := s.profiles.Sync(ctx, accountID, email, displayName)
	if err != nil {
		logger.From(ctx).Error("profile sync failed",
			logger.Component("reconcile.service"),
			logger.AccountID(accountID),
			logger.Err(err),
		)
		out.ProfileDegraded = true
		return
	}
	out.ProfileDegraded = res.Degraded
}
