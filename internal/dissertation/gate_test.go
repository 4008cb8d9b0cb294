package dissertation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(NewMemoryStore())

	cases := []struct {
		name    string
		role    UploadRole
		status  Status
		wantErr error
	}{
		{"student on pending", RoleStudent, StatusPending, ErrNotApprovedYet},
		{"student on rejected", RoleStudent, StatusRejected, ErrNotApprovedYet},
		{"student on approved", RoleStudent, StatusApproved, nil},
		{"professor on pending", RoleProfessor, StatusPending, ErrStillPending},
		{"professor on approved", RoleProfessor, StatusApproved, nil},
		{"professor on rejected", RoleProfessor, StatusRejected, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Authorize(tc.role, &Request{Status: tc.status})
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, ErrUploadPrecondition)
			}
		})
	}
}

func TestGate_AuthorizeUnknownRole(t *testing.T) {
	gate := NewGate(NewMemoryStore())
	err := gate.Authorize(UploadRole("dean"), &Request{Status: StatusApproved})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGate_AttachSetsBothFiles(t *testing.T) {
	winStart := time.Now().Add(-time.Hour)
	winEnd := time.Now().Add(time.Hour)
	store, prof, student, sess := seedWorld(t, 5, winStart, winEnd)
	req := newRequest(t, store, student.ID, prof.ID, sess.ID, StatusApproved)
	ctx := context.Background()

	gate := NewGate(store)
	updated, err := gate.Attach(ctx, RoleStudent, req.ID, "/uploads/thesis-v1.pdf")
	require.NoError(t, err)
	require.NotNil(t, updated.StudentFile)
	require.NotNil(t, updated.ProfessorFile)
	assert.Equal(t, "/uploads/thesis-v1.pdf", *updated.StudentFile)
	assert.Equal(t, "/uploads/thesis-v1.pdf", *updated.ProfessorFile)

	// A later upload by the other role overwrites both references.
	updated, err = gate.Attach(ctx, RoleProfessor, req.ID, "/uploads/thesis-signed.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/thesis-signed.pdf", *updated.StudentFile)
	assert.Equal(t, "/uploads/thesis-signed.pdf", *updated.ProfessorFile)
}

func TestGate_AttachDeniedLeavesFilesUnset(t *testing.T) {
	winStart := time.Now().Add(-time.Hour)
	winEnd := time.Now().Add(time.Hour)
	store, prof, student, sess := seedWorld(t, 5, winStart, winEnd)
	req := newRequest(t, store, student.ID, prof.ID, sess.ID, StatusPending)
	ctx := context.Background()

	gate := NewGate(store)
	_, err := gate.Attach(ctx, RoleStudent, req.ID, "/uploads/too-early.pdf")
	assert.ErrorIs(t, err, ErrNotApprovedYet)

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StudentFile)
	assert.Nil(t, got.ProfessorFile)
}

func TestGate_AttachMissingRequest(t *testing.T) {
	gate := NewGate(NewMemoryStore())
	_, err := gate.Attach(context.Background(), RoleStudent, "missing", "/uploads/x.pdf")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
