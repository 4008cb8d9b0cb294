package dissertation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory store for dev mode and
// tests. It mirrors the Postgres backend's semantics: lookups return
// (nil, nil) on missing rows and aggregates are recomputed per call.
type MemoryStore struct {
	mu         sync.RWMutex
	students   map[string]Student
	professors map[string]Professor
	sessions   map[string]Session
	requests   map[string]Request
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:   make(map[string]Student),
		professors: make(map[string]Professor),
		sessions:   make(map[string]Session),
		requests:   make(map[string]Request),
	}
}

func (m *MemoryStore) Close() error                 { return nil }
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

func now() time.Time { return time.Now().UTC() }

// ---- Students ----

func (m *MemoryStore) CreateStudent(_ context.Context, s *Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	m.students[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetStudent(_ context.Context, id string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MemoryStore) FindStudentByEmail(_ context.Context, email string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.Email == email {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListStudents(_ context.Context) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Student, 0, len(m.students))
	for _, s := range m.students {
		res = append(res, s)
	}
	return res, nil
}

func (m *MemoryStore) UpdateStudent(_ context.Context, s *Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.students[s.ID]
	if !ok {
		return ErrStudentNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = now()
	m.students[s.ID] = *s
	return nil
}

func (m *MemoryStore) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return ErrStudentNotFound
	}
	delete(m.students, id)
	return nil
}

// ---- Professors ----

func (m *MemoryStore) CreateProfessor(_ context.Context, p *Professor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	m.professors[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProfessor(_ context.Context, id string) (*Professor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.professors[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryStore) FindProfessorByEmail(_ context.Context, email string) (*Professor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.professors {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListProfessors(_ context.Context) ([]Professor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Professor, 0, len(m.professors))
	for _, p := range m.professors {
		res = append(res, p)
	}
	return res, nil
}

func (m *MemoryStore) UpdateProfessor(_ context.Context, p *Professor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.professors[p.ID]
	if !ok {
		return ErrProfessorNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = now()
	m.professors[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProfessor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.professors[id]; !ok {
		return ErrProfessorNotFound
	}
	delete(m.professors, id)
	return nil
}

// ---- Sessions ----

func (m *MemoryStore) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		res = append(res, s)
	}
	return res, nil
}

func (m *MemoryStore) UpdateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = now()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ---- Requests ----

func (m *MemoryStore) CreateRequest(_ context.Context, r *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	m.requests[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetRequest(_ context.Context, id string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListRequests(_ context.Context) ([]Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Request, 0, len(m.requests))
	for _, r := range m.requests {
		res = append(res, r)
	}
	return res, nil
}

func (m *MemoryStore) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return ErrRequestNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *MemoryStore) UpdateRequestFields(_ context.Context, id string, patch RequestPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Justification != nil {
		r.Justification = *patch.Justification
	}
	if !patch.Empty() {
		r.UpdatedAt = now()
	}
	m.requests[id] = r
	return nil
}

func (m *MemoryStore) SetRequestStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	r.Status = status
	r.UpdatedAt = now()
	m.requests[id] = r
	return nil
}

func (m *MemoryStore) SetRequestFiles(_ context.Context, id string, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	r.StudentFile = &ref
	r.ProfessorFile = &ref
	r.UpdatedAt = now()
	m.requests[id] = r
	return nil
}

func (m *MemoryStore) CountApproved(_ context.Context, professorID, excludeRequestID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.requests {
		if r.ProfessorID == professorID && r.Status == StatusApproved && r.ID != excludeRequestID {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) FindApprovedForStudent(_ context.Context, studentID, excludeRequestID string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if r.StudentID == studentID && r.Status == StatusApproved && r.ID != excludeRequestID {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}
