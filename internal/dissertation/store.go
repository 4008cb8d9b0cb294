package dissertation

import "context"

// Store is the persistence boundary for the workflow core and the CRUD
// surface. Lookups return (nil, nil) when the row does not exist.
// Capacity and exclusivity are recomputed aggregates over current rows;
// implementations must not cache them.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Students
	CreateStudent(ctx context.Context, s *Student) error
	GetStudent(ctx context.Context, id string) (*Student, error)
	FindStudentByEmail(ctx context.Context, email string) (*Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	UpdateStudent(ctx context.Context, s *Student) error
	DeleteStudent(ctx context.Context, id string) error

	// Professors
	CreateProfessor(ctx context.Context, p *Professor) error
	GetProfessor(ctx context.Context, id string) (*Professor, error)
	FindProfessorByEmail(ctx context.Context, email string) (*Professor, error)
	ListProfessors(ctx context.Context) ([]Professor, error)
	UpdateProfessor(ctx context.Context, p *Professor) error
	DeleteProfessor(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, id string) error

	// Requests
	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context) ([]Request, error)
	DeleteRequest(ctx context.Context, id string) error

	// Workflow operations. UpdateRequestFields applies only the
	// allow-listed free-text patch. SetRequestFiles writes both file
	// references at once; the two fields are never updated
	// independently.
	UpdateRequestFields(ctx context.Context, id string, patch RequestPatch) error
	SetRequestStatus(ctx context.Context, id string, status Status) error
	SetRequestFiles(ctx context.Context, id string, ref string) error

	// Policy aggregates. excludeRequestID removes the request under
	// evaluation from its own count so re-approval stays idempotent.
	CountApproved(ctx context.Context, professorID, excludeRequestID string) (int, error)
	FindApprovedForStudent(ctx context.Context, studentID, excludeRequestID string) (*Request, error)
}
