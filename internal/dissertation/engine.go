package dissertation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Engine drives request status transitions. Every transition into
// approved must pass the policy evaluator; transitions into pending or
// rejected are unconditional. A rejected approval attempt is
// compensated by normalizing the request back to pending before the
// error is returned, so the caller always observes a well-defined
// state.
type Engine struct {
	store  Store
	policy *Policy
	locks  *keyedLocks
	logger *zap.Logger
}

// NewEngine creates a workflow engine over the given store.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		policy: NewPolicy(store),
		locks:  newKeyedLocks(),
		logger: logger,
	}
}

// Transition applies the free-text patch, then attempts to move the
// request into proposed. The patch sticks regardless of the status
// outcome. now is the moment used for the session-window check.
func (e *Engine) Transition(ctx context.Context, requestID string, proposed Status, patch RequestPatch, now time.Time) (*Request, error) {
	if !proposed.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, proposed)
	}

	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	if err := e.store.UpdateRequestFields(ctx, requestID, patch); err != nil {
		return nil, err
	}

	if proposed == StatusApproved {
		// Capacity and exclusivity are derived from other rows, so the
		// check-and-commit for a professor or student must not
		// interleave with another approval touching the same rows.
		release := e.locks.Acquire("professor:"+req.ProfessorID, "student:"+req.StudentID)
		defer release()

		// The pre-lock read is stale by definition; re-read.
		req, err = e.store.GetRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if req == nil {
			return nil, ErrRequestNotFound
		}

		if perr := e.policy.Evaluate(ctx, req, proposed, now); perr != nil {
			if !IsPolicyReject(perr) {
				return nil, perr
			}
			// Compensating write: a failed approval attempt leaves the
			// request in pending, whatever its previous status was.
			if err := e.store.SetRequestStatus(ctx, requestID, StatusPending); err != nil {
				return nil, fmt.Errorf("compensate after rejected approval: %w", err)
			}
			e.logger.Info("approval rejected",
				zap.String("request_id", requestID),
				zap.String("reason", perr.Error()),
			)
			return nil, perr
		}
	}

	if err := e.store.SetRequestStatus(ctx, requestID, proposed); err != nil {
		return nil, err
	}

	e.logger.Info("request transitioned",
		zap.String("request_id", requestID),
		zap.String("status", string(proposed)),
	)

	updated, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRequestNotFound
	}
	return updated, nil
}
