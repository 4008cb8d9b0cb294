package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dissertation/internal/auth"
	"dissertation/internal/config"
	"dissertation/internal/dissertation"
	"dissertation/internal/queue"
	"dissertation/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, dissertation.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{
		JWTIssuer:     "test",
		JWTSigningKey: "test-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
	}

	store := dissertation.NewMemoryStore()
	engine := dissertation.NewEngine(store, zap.NewNop())
	gate := dissertation.NewGate(store)
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	h := New(store, engine, gate, local, queue.NewInMemory(16), zap.NewNop(), cfg)

	r := gin.New()
	h.Register(r, auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// seedWorld creates a student, a professor with the given capacity, a
// session around now, and one pending request through the public API.
func seedWorld(t *testing.T, r *gin.Engine, maxApproved int) (studentID, professorID, sessionID, requestID string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/students", gin.H{
		"name": "Ada", "email": "ada@uni.edu", "password": "pw",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	studentID = decode[dissertation.Student](t, w).ID

	w = doJSON(t, r, http.MethodPost, "/api/professors", gin.H{
		"name": "Knuth", "email": "knuth@uni.edu", "password": "pw", "max_approved": maxApproved,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	professorID = decode[dissertation.Professor](t, w).ID

	now := time.Now().UTC()
	w = doJSON(t, r, http.MethodPost, "/api/sessions", gin.H{
		"start_at":     now.Add(-time.Hour),
		"end_at":       now.Add(time.Hour),
		"professor_id": professorID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID = decode[dissertation.Session](t, w).ID

	w = doJSON(t, r, http.MethodPost, "/api/requests", gin.H{
		"student_id":   studentID,
		"professor_id": professorID,
		"session_id":   sessionID,
		"title":        "distributed consensus",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID = decode[dissertation.Request](t, w).ID
	return
}

func login(t *testing.T, r *gin.Engine, role, email, password string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"role": role, "email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorld(t, r, 1)

	token := login(t, r, "professor", "knuth@uni.edu", "pw")
	assert.NotEmpty(t, token)

	w := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"role": "professor", "email": "knuth@uni.edu", "password": "pw",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	refresh, _ := body["refresh_token"].(string)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, body["access_token"], refresh)

	w = doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"role": "professor", "email": "knuth@uni.edu", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"role": "student", "email": "nobody@uni.edu", "password": "pw",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransitionRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 1)

	w := doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"status": "approved"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransitionApprove(t *testing.T) {
	r, _ := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 1)
	token := login(t, r, "professor", "knuth@uni.edu", "pw")

	w := doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"status": "approved"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[dissertation.Request](t, w)
	assert.Equal(t, dissertation.StatusApproved, got.Status)
}

func TestTransitionCapacityRejectNormalizesToPending(t *testing.T) {
	r, store := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 0)
	token := login(t, r, "professor", "knuth@uni.edu", "pw")

	w := doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"status": "approved"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, err := store.GetRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, dissertation.StatusPending, req.Status)
}

func TestTransitionTextPatchOnly(t *testing.T) {
	r, store := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 0)
	token := login(t, r, "professor", "knuth@uni.edu", "pw")

	// No status in the body: the edit lands even at zero capacity and
	// the request stays pending.
	w := doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"title": "revised topic"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req, err := store.GetRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "revised topic", req.Title)
	assert.Equal(t, dissertation.StatusPending, req.Status)
}

func TestTransitionUnknownRequest(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorld(t, r, 1)
	token := login(t, r, "professor", "knuth@uni.edu", "pw")

	w := doJSON(t, r, http.MethodPut, "/api/requests/missing", gin.H{"status": "approved"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissingEntityReturns404(t *testing.T) {
	r, _ := newTestRouter(t)
	seedWorld(t, r, 1)

	// Lookup misses outside the transition path are 404s, even for the
	// entities that double as policy rejection reasons.
	w := doJSON(t, r, http.MethodPut, "/api/professors/missing", gin.H{"name": "X"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/sessions/missing", gin.H{}, "")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/students/missing", gin.H{"name": "X"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/api/sessions/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestTransitionMissingSessionRejects(t *testing.T) {
	r, store := newTestRouter(t)
	_, _, sessionID, requestID := seedWorld(t, r, 1)
	token := login(t, r, "professor", "knuth@uni.edu", "pw")

	require.NoError(t, store.DeleteSession(context.Background(), sessionID))

	// On the transition path the vanished session is a policy
	// rejection, not a lookup miss: 400, request normalized to pending.
	w := doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"status": "approved"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	req, err := store.GetRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, dissertation.StatusPending, req.Status)
}

func uploadDocument(t *testing.T, r *gin.Engine, requestID, role, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("role", role))
	part, err := mw.CreateFormFile("file", "thesis.pdf")
	require.NoError(t, err)
	fmt.Fprint(part, "dissertation contents")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/"+requestID+"/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadGatedByStatus(t *testing.T) {
	r, _ := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 1)
	studentToken := login(t, r, "student", "ada@uni.edu", "pw")
	profToken := login(t, r, "professor", "knuth@uni.edu", "pw")

	// Pending: neither role may upload.
	w := uploadDocument(t, r, requestID, "student", studentToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = uploadDocument(t, r, requestID, "professor", profToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/requests/"+requestID, gin.H{"status": "approved"}, profToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = uploadDocument(t, r, requestID, "student", studentToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[dissertation.Request](t, w)
	require.NotNil(t, got.StudentFile)
	require.NotNil(t, got.ProfessorFile)
	assert.Equal(t, *got.StudentFile, *got.ProfessorFile)
}

func TestUploadRoleMismatch(t *testing.T) {
	r, _ := newTestRouter(t)
	_, _, _, requestID := seedWorld(t, r, 1)
	studentToken := login(t, r, "student", "ada@uni.edu", "pw")

	// A student token may not upload under the professor role.
	w := uploadDocument(t, r, requestID, "professor", studentToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAutoSessionsOnProfessorCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.App{
		JWTIssuer: "test", JWTSigningKey: "test-secret",
		AccessTTL: time.Hour, RefreshTTL: time.Hour,
		AutoSessions: true,
	}
	store := dissertation.NewMemoryStore()
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	h := New(store, dissertation.NewEngine(store, zap.NewNop()), dissertation.NewGate(store), local, queue.NewInMemory(16), zap.NewNop(), cfg)
	r := gin.New()
	h.Register(r, auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	w := doJSON(t, r, http.MethodPost, "/api/professors", gin.H{
		"name": "Hopper", "email": "hopper@uni.edu", "password": "pw",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prof := decode[dissertation.Professor](t, w)
	assert.Equal(t, dissertation.DefaultMaxApproved, prof.MaxApproved)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	// One of the four quarters must cover today.
	covered := false
	now := time.Now().UTC()
	for i := range sessions {
		assert.Equal(t, prof.ID, sessions[i].ProfessorID)
		if sessions[i].Contains(now) {
			covered = true
		}
	}
	assert.True(t, covered)
}

func TestQuarterSessions(t *testing.T) {
	// January belongs to the academic year that started the previous
	// September.
	got := quarterSessions("p1", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.Len(t, got, 4)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), got[0].StartAt)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second), got[3].EndAt)
	for i := 0; i < 3; i++ {
		assert.Equal(t, got[i+1].StartAt.Add(-time.Second), got[i].EndAt)
	}
}

func TestSessionValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	_, professorID, _, _ := seedWorld(t, r, 1)

	now := time.Now().UTC()
	w := doJSON(t, r, http.MethodPost, "/api/sessions", gin.H{
		"start_at":     now,
		"end_at":       now.Add(-time.Hour),
		"professor_id": professorID,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/sessions", gin.H{
		"start_at":     now,
		"end_at":       now.Add(time.Hour),
		"professor_id": "missing",
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
