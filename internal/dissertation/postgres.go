package dissertation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PostgresStore persists entities in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by the given connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- Students ----

func (s *PostgresStore) CreateStudent(ctx context.Context, st *Student) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO students (id, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, st.ID, st.Name, st.Email, st.Password)
	return row.Scan(&st.CreatedAt, &st.UpdatedAt)
}

func (s *PostgresStore) GetStudent(ctx context.Context, id string) (*Student, error) {
	return s.scanStudent(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, created_at, updated_at
		FROM students WHERE id = $1
	`, id))
}

func (s *PostgresStore) FindStudentByEmail(ctx context.Context, email string) (*Student, error) {
	return s.scanStudent(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, created_at, updated_at
		FROM students WHERE email = $1
	`, email))
}

func (s *PostgresStore) scanStudent(row *sql.Row) (*Student, error) {
	var st Student
	if err := row.Scan(&st.ID, &st.Name, &st.Email, &st.Password, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password, created_at, updated_at
		FROM students ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Password, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *PostgresStore) UpdateStudent(ctx context.Context, st *Student) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE students SET name = $2, email = $3, password = $4, updated_at = NOW()
		WHERE id = $1
	`, st.ID, st.Name, st.Email, st.Password)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrStudentNotFound)
}

func (s *PostgresStore) DeleteStudent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrStudentNotFound)
}

// ---- Professors ----

func (s *PostgresStore) CreateProfessor(ctx context.Context, p *Professor) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO professors (id, name, email, password, max_approved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Email, p.Password, p.MaxApproved)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) GetProfessor(ctx context.Context, id string) (*Professor, error) {
	return s.scanProfessor(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, max_approved, created_at, updated_at
		FROM professors WHERE id = $1
	`, id))
}

func (s *PostgresStore) FindProfessorByEmail(ctx context.Context, email string) (*Professor, error) {
	return s.scanProfessor(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, max_approved, created_at, updated_at
		FROM professors WHERE email = $1
	`, email))
}

func (s *PostgresStore) scanProfessor(row *sql.Row) (*Professor, error) {
	var p Professor
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Password, &p.MaxApproved, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListProfessors(ctx context.Context) ([]Professor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password, max_approved, created_at, updated_at
		FROM professors ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Professor
	for rows.Next() {
		var p Professor
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Password, &p.MaxApproved, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *PostgresStore) UpdateProfessor(ctx context.Context, p *Professor) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE professors SET name = $2, email = $3, password = $4, max_approved = $5, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Email, p.Password, p.MaxApproved)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrProfessorNotFound)
}

func (s *PostgresStore) DeleteProfessor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM professors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrProfessorNotFound)
}

// ---- Sessions ----

func (s *PostgresStore) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, start_at, end_at, professor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, sess.ID, sess.StartAt, sess.EndAt, sess.ProfessorID)
	return row.Scan(&sess.CreatedAt, &sess.UpdatedAt)
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, start_at, end_at, professor_id, created_at, updated_at
		FROM sessions WHERE id = $1
	`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.StartAt, &sess.EndAt, &sess.ProfessorID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_at, end_at, professor_id, created_at, updated_at
		FROM sessions ORDER BY start_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.StartAt, &sess.EndAt, &sess.ProfessorID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, sess)
	}
	return res, rows.Err()
}

func (s *PostgresStore) UpdateSession(ctx context.Context, sess *Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET start_at = $2, end_at = $3, professor_id = $4, updated_at = NOW()
		WHERE id = $1
	`, sess.ID, sess.StartAt, sess.EndAt, sess.ProfessorID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrSessionNotFound)
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrSessionNotFound)
}

// ---- Requests ----

const requestColumns = `id, status, title, description, justification,
	student_file, professor_file, student_id, professor_id, session_id,
	created_at, updated_at`

func (s *PostgresStore) CreateRequest(ctx context.Context, r *Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO requests (id, status, title, description, justification, student_id, professor_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.ID, r.Status, r.Title, r.Description, r.Justification, r.StudentID, r.ProfessorID, r.SessionID)
	return row.Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests WHERE id = $1
	`, id)
	return scanRequest(row)
}

func scanRequest(row *sql.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.Status, &r.Title, &r.Description, &r.Justification,
		&r.StudentFile, &r.ProfessorFile, &r.StudentID, &r.ProfessorID, &r.SessionID,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context) ([]Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.Status, &r.Title, &r.Description, &r.Justification,
			&r.StudentFile, &r.ProfessorFile, &r.StudentID, &r.ProfessorID, &r.SessionID,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *PostgresStore) DeleteRequest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

func (s *PostgresStore) UpdateRequestFields(ctx context.Context, id string, patch RequestPatch) error {
	if patch.Empty() {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE requests SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			justification = COALESCE($4, justification),
			updated_at = NOW()
		WHERE id = $1
	`, id, patch.Title, patch.Description, patch.Justification)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

func (s *PostgresStore) SetRequestStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE requests SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

// SetRequestFiles writes the same reference into both file columns;
// the roles share one uploaded artifact per request.
func (s *PostgresStore) SetRequestFiles(ctx context.Context, id string, ref string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE requests SET student_file = $2, professor_file = $2, updated_at = NOW()
		WHERE id = $1
	`, id, ref)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

func (s *PostgresStore) CountApproved(ctx context.Context, professorID, excludeRequestID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM requests
		WHERE professor_id = $1 AND status = 'approved' AND id <> $2
	`, professorID, excludeRequestID).Scan(&count)
	return count, err
}

func (s *PostgresStore) FindApprovedForStudent(ctx context.Context, studentID, excludeRequestID string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE student_id = $1 AND status = 'approved' AND id <> $2
		LIMIT 1
	`, studentID, excludeRequestID)
	return scanRequest(row)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
