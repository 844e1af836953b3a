package reconcile

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
)

// AttachFailure records one provider record that could not be re-attached
// to the surviving account.
type AttachFailure struct {
	Record domain.ProviderRecord
	Err    error
}

// MergeResult reports what a merge did.
type MergeResult struct {
	BridgingToken string
	Attached      []domain.ProviderKind
	Failures      []AttachFailure
}

// Partial reports whether some provider attachments failed after the
// losing account was already gone.
func (r *MergeResult) Partial() bool { return len(r.Failures) > 0 }

// Executor performs the destructive merge sequence against the IdP.
type Executor struct {
	idp repository.IdPBackend
}

// NewExecutor creates an Executor.
func NewExecutor(idp repository.IdPBackend) *Executor {
	return &Executor{idp: idp}
}

// Merge deletes the losing account, re-attaches its non-password provider
// records to the survivor, and mints a bridging credential for the
// survivor.
//
// The deletion MUST happen before any attach: the backend considers a
// provider identity claimed until its owning account is removed, so
// attach-then-delete is rejected. Never reorder these steps.
//
// A not-found on deletion is benign: a concurrent reconciliation for the
// same pair already deleted the loser, and re-running the attach loop is
// safe because re-attaching a record the survivor already holds is a
// no-op. One failed attachment does not abort the rest; the loser is
// already gone, so best-effort completion is the only sane policy. The
// failures are reported in the result and the operation still succeeds
// with a bridging credential.
func (e *Executor) Merge(ctx context.Context, loserID, survivorID string, loserRecords []domain.ProviderRecord) (*MergeResult, error) {
	log := logger.From(ctx).With(
		logger.Component("reconcile.merge"),
		logger.String("loser_account_id", loserID),
		logger.String("survivor_account_id", survivorID),
	)

	if err := e.idp.DeleteAccount(ctx, loserID); err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("delete losing account: %w", err)
		}
		log.Info("losing account already gone, continuing merge")
	}

	res := &MergeResult{}
	for _, rec := range loserRecords {
		if rec.Kind.IsPassword() {
			// Passwords are never transplanted; the surviving side
			// keeps whatever password it already has.
			continue
		}
		if err := e.idp.AttachProvider(ctx, survivorID, rec.Kind, rec.ProviderUserID, rec.Email); err != nil {
			mergeAttachFailures.WithLabelValues(string(rec.Kind)).Inc()
			log.Error("provider attach failed after delete",
				logger.Provider(string(rec.Kind)),
				logger.Err(err),
			)
			res.Failures = append(res.Failures, AttachFailure{Record: rec, Err: err})
			continue
		}
		res.Attached = append(res.Attached, rec.Kind)
	}

	token, err := e.idp.MintBridgingCredential(ctx, survivorID)
	if err != nil {
		return nil, fmt.Errorf("mint bridging credential: %w", err)
	}
	res.BridgingToken = token

	if res.Partial() {
		log.Error("merge completed partially",
			logger.Count(len(res.Failures)),
			logger.Any("attached", res.Attached),
		)
	} else {
		log.Info("merge completed", logger.Any("attached", res.Attached))
	}
	return res, nil
}
