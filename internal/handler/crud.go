package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dissertation/internal/dissertation"
)

// ---- Students ----

type studentBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.store.ListStudents(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if students == nil {
		students = []dissertation.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := &dissertation.Student{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := h.store.CreateStudent(c.Request.Context(), st); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

type studentPatchBody struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var req studentPatchBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.store.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if st == nil {
		h.writeError(c, dissertation.ErrStudentNotFound)
		return
	}
	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Email != nil {
		st.Email = *req.Email
	}
	if req.Password != nil {
		st.Password = *req.Password
	}
	if err := h.store.UpdateStudent(c.Request.Context(), st); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.store.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ---- Professors ----

type professorBody struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	MaxApproved *int   `json:"max_approved"`
}

func (h *Handler) ListProfessors(c *gin.Context) {
	professors, err := h.store.ListProfessors(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if professors == nil {
		professors = []dissertation.Professor{}
	}
	c.JSON(http.StatusOK, professors)
}

func (h *Handler) CreateProfessor(c *gin.Context) {
	var req professorBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxApproved := dissertation.DefaultMaxApproved
	if req.MaxApproved != nil {
		if *req.MaxApproved < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_approved must be >= 0"})
			return
		}
		maxApproved = *req.MaxApproved
	}

	p := &dissertation.Professor{Name: req.Name, Email: req.Email, Password: req.Password, MaxApproved: maxApproved}
	if err := h.store.CreateProfessor(c.Request.Context(), p); err != nil {
		h.writeError(c, err)
		return
	}

	if h.cfg.AutoSessions {
		for _, sess := range quarterSessions(p.ID, nowUTC()) {
			sess := sess
			if err := h.store.CreateSession(c.Request.Context(), &sess); err != nil {
				h.logger.Warn("auto session creation failed",
					zap.String("professor_id", p.ID),
					zap.Error(err),
				)
				break
			}
		}
	}

	c.JSON(http.StatusCreated, p)
}

// quarterSessions generates default enrollment windows covering the
// academic year that contains now, one per quarter starting Sep 1.
func quarterSessions(professorID string, now time.Time) []dissertation.Session {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	base := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)

	sessions := make([]dissertation.Session, 0, 4)
	for i := 0; i < 4; i++ {
		start := base.AddDate(0, 3*i, 0)
		end := base.AddDate(0, 3*(i+1), 0).Add(-time.Second)
		sessions = append(sessions, dissertation.Session{
			StartAt:     start,
			EndAt:       end,
			ProfessorID: professorID,
		})
	}
	return sessions
}

type professorPatchBody struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	MaxApproved *int    `json:"max_approved"`
}

func (h *Handler) UpdateProfessor(c *gin.Context) {
	var req professorPatchBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.store.GetProfessor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if p == nil {
		h.writeError(c, dissertation.ErrProfessorNotFound)
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Password != nil {
		p.Password = *req.Password
	}
	if req.MaxApproved != nil {
		if *req.MaxApproved < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_approved must be >= 0"})
			return
		}
		// Lowering capacity never demotes already approved requests;
		// it only constrains future approvals.
		p.MaxApproved = *req.MaxApproved
	}
	if err := h.store.UpdateProfessor(c.Request.Context(), p); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProfessor(c *gin.Context) {
	if err := h.store.DeleteProfessor(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ---- Sessions ----

type sessionBody struct {
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	ProfessorID string    `json:"professor_id" binding:"required"`
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []dissertation.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.EndAt.Before(req.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must not be after end_at"})
		return
	}
	prof, err := h.store.GetProfessor(c.Request.Context(), req.ProfessorID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if prof == nil {
		h.writeError(c, dissertation.ErrProfessorNotFound)
		return
	}

	sess := &dissertation.Session{StartAt: req.StartAt, EndAt: req.EndAt, ProfessorID: req.ProfessorID}
	if err := h.store.CreateSession(c.Request.Context(), sess); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

type sessionPatchBody struct {
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	ProfessorID *string    `json:"professor_id"`
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var req sessionPatchBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if sess == nil {
		h.writeError(c, dissertation.ErrSessionNotFound)
		return
	}
	if req.StartAt != nil {
		sess.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		sess.EndAt = *req.EndAt
	}
	if req.ProfessorID != nil {
		sess.ProfessorID = *req.ProfessorID
	}
	if sess.EndAt.Before(sess.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must not be after end_at"})
		return
	}
	if err := h.store.UpdateSession(c.Request.Context(), sess); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.store.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
