package dissertation

import (
	"context"
	"fmt"
)

// Gate authorizes document uploads based on a request's current
// status. Students may upload once the request is approved; professors
// once it has been reviewed (approved or rejected).
type Gate struct {
	store Store
}

// NewGate creates a document gate over the given store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Authorize reports whether role may upload a document for req.
func (g *Gate) Authorize(role UploadRole, req *Request) error {
	switch role {
	case RoleStudent:
		if req.Status != StatusApproved {
			return ErrNotApprovedYet
		}
	case RoleProfessor:
		if req.Status == StatusPending {
			return ErrStillPending
		}
	default:
		return fmt.Errorf("%w: unknown upload role %q", ErrValidation, role)
	}
	return nil
}

// Attach records the stored artifact reference on the request. Both
// file fields receive the same reference: the roles share one signed
// document per request, and a later upload by either role overwrites
// both.
func (g *Gate) Attach(ctx context.Context, role UploadRole, requestID, ref string) (*Request, error) {
	req, err := g.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if err := g.Authorize(role, req); err != nil {
		return nil, err
	}
	if err := g.store.SetRequestFiles(ctx, requestID, ref); err != nil {
		return nil, err
	}
	return g.store.GetRequest(ctx, requestID)
}
