package dissertation

import (
	"errors"
	"fmt"
)

// Typed errors surfaced to the HTTP boundary. Policy rejections are
// always accompanied by a compensating write that leaves the request
// in pending, so callers never need to clean up state themselves.
var (
	ErrRequestNotFound   = errors.New("request not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrProfessorNotFound = errors.New("professor not found")
	ErrSessionNotFound   = errors.New("session not found")

	ErrValidation = errors.New("validation failed")

	ErrCapacityExceeded         = errors.New("professor reached max number of approved students")
	ErrAlreadyApprovedElsewhere = errors.New("student has already been approved by another professor")
	ErrOutsideWindow            = errors.New("request is not within session time range")

	ErrUploadPrecondition = errors.New("upload precondition failed")
	ErrNotApprovedYet     = fmt.Errorf("request is not approved yet: %w", ErrUploadPrecondition)
	ErrStillPending       = fmt.Errorf("request is still pending review: %w", ErrUploadPrecondition)
)

// IsPolicyReject reports whether err is one of the approval policy
// rejection reasons (as opposed to a repository failure).
func IsPolicyReject(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrAlreadyApprovedElsewhere) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrOutsideWindow) ||
		errors.Is(err, ErrProfessorNotFound)
}
