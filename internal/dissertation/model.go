package dissertation

import "time"

// Status is the lifecycle state of a supervision request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// UploadRole identifies which side of a request uploads a document.
type UploadRole string

const (
	RoleStudent   UploadRole = "student"
	RoleProfessor UploadRole = "professor"
)

// Student is a registered student account.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Professor is a supervising professor with a capacity limit.
type Professor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	MaxApproved int       `json:"max_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultMaxApproved is the capacity assigned when none is given.
const DefaultMaxApproved = 5

// Session is an enrollment window owned by a professor. Requests
// targeting it may only be approved while the window is open.
type Session struct {
	ID          string    `json:"id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	ProfessorID string    `json:"professor_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contains reports whether t falls within the session window,
// inclusive on both ends.
func (s *Session) Contains(t time.Time) bool {
	return !t.Before(s.StartAt) && !t.After(s.EndAt)
}

// Request is a student's ask for supervision by a professor within a
// session. Status is mutated only by the workflow engine, the file
// fields only by the document gate.
type Request struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	Justification string    `json:"justification,omitempty"`
	StudentFile   *string   `json:"student_file"`
	ProfessorFile *string   `json:"professor_file"`
	StudentID     string    `json:"student_id"`
	ProfessorID   string    `json:"professor_id"`
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RequestPatch is the allow-listed set of mutable free-text fields.
// Status and foreign keys deliberately have no place here; they go
// through dedicated operations.
type RequestPatch struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Justification *string `json:"justification"`
}

// Empty reports whether the patch carries no changes.
func (p RequestPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Justification == nil
}
