package dissertation

import (
	"context"
	"time"
)

// Policy decides whether a proposed transition may be committed. It is
// a pure read over the store snapshot at the instant of evaluation and
// has no side effects.
type Policy struct {
	store Store
}

// NewPolicy creates a policy evaluator over the given store.
func NewPolicy(store Store) *Policy {
	return &Policy{store: store}
}

// Evaluate returns nil when the transition is acceptable, or one of the
// policy rejection errors. Only transitions into approved trigger the
// compound check; pending and rejected are always accepted. Checks
// short-circuit on the first failure so each reason surfaces distinctly:
//
//  1. capacity: approved count for the professor, excluding the request
//     under evaluation, must stay below max_approved
//  2. exclusivity: no other approved request may exist for the student
//  3. window: the target session must resolve and contain now
func (p *Policy) Evaluate(ctx context.Context, req *Request, proposed Status, now time.Time) error {
	if proposed != StatusApproved {
		return nil
	}

	prof, err := p.store.GetProfessor(ctx, req.ProfessorID)
	if err != nil {
		return err
	}
	if prof == nil {
		return ErrProfessorNotFound
	}

	count, err := p.store.CountApproved(ctx, req.ProfessorID, req.ID)
	if err != nil {
		return err
	}
	if count >= prof.MaxApproved {
		return ErrCapacityExceeded
	}

	other, err := p.store.FindApprovedForStudent(ctx, req.StudentID, req.ID)
	if err != nil {
		return err
	}
	if other != nil {
		return ErrAlreadyApprovedElsewhere
	}

	sess, err := p.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if !sess.Contains(now) {
		return ErrOutsideWindow
	}

	return nil
}
