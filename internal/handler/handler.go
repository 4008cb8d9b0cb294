package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dissertation/internal/auth"
	"dissertation/internal/config"
	"dissertation/internal/dissertation"
	"dissertation/internal/queue"
	"dissertation/internal/storage"
)

// Handler exposes the service over HTTP. It owns no business rules:
// transitions go through the workflow engine, uploads through the
// document gate, everything else is CRUD over the store.
type Handler struct {
	store   dissertation.Store
	engine  *dissertation.Engine
	gate    *dissertation.Gate
	storage storage.Storage
	queue   queue.Queue
	logger  *zap.Logger
	cfg     config.App
}

// New wires a handler over its collaborators.
func New(store dissertation.Store, engine *dissertation.Engine, gate *dissertation.Gate, st storage.Storage, q queue.Queue, logger *zap.Logger, cfg config.App) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   store,
		engine:  engine,
		gate:    gate,
		storage: st,
		queue:   q,
		logger:  logger,
		cfg:     cfg,
	}
}

// Register mounts all routes under /api. The protect middleware (JWT)
// guards the workflow and upload endpoints; entity CRUD stays open as
// in the legacy surface.
func (h *Handler) Register(r *gin.Engine, protect ...gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/login", h.Login)

	api.GET("/students", h.ListStudents)
	api.POST("/students", h.CreateStudent)
	api.PUT("/students/:id", h.UpdateStudent)
	api.DELETE("/students/:id", h.DeleteStudent)

	api.GET("/professors", h.ListProfessors)
	api.POST("/professors", h.CreateProfessor)
	api.PUT("/professors/:id", h.UpdateProfessor)
	api.DELETE("/professors/:id", h.DeleteProfessor)

	api.GET("/sessions", h.ListSessions)
	api.POST("/sessions", h.CreateSession)
	api.PUT("/sessions/:id", h.UpdateSession)
	api.DELETE("/sessions/:id", h.DeleteSession)

	api.GET("/requests", h.ListRequests)
	api.POST("/requests", h.CreateRequest)
	api.DELETE("/requests/:id", h.DeleteRequest)

	guarded := api.Group("", protect...)
	guarded.PUT("/requests/:id", h.UpdateRequest)
	guarded.POST("/requests/:id/document", h.UploadDocument)
}

// writeError translates the typed error taxonomy into transport codes.
// Missing entities are checked first: ErrProfessorNotFound and
// ErrSessionNotFound double as policy rejection reasons, but outside
// the transition path (which maps rejections to 400 itself) they mean
// a lookup miss and must come back as 404.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dissertation.ErrRequestNotFound),
		errors.Is(err, dissertation.ErrStudentNotFound),
		errors.Is(err, dissertation.ErrProfessorNotFound),
		errors.Is(err, dissertation.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dissertation.ErrUploadPrecondition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case dissertation.IsPolicyReject(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dissertation.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type loginRequest struct {
	Role     string `json:"role" binding:"required,oneof=student professor"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credential verbatim against the stored one and
// issues a bearer token. No hashing is involved; credentials are
// opaque values compared for equality.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		id, name, email, password string
	)
	switch req.Role {
	case auth.RoleStudent:
		st, err := h.store.FindStudentByEmail(c.Request.Context(), req.Email)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if st != nil {
			id, name, email, password = st.ID, st.Name, st.Email, st.Password
		}
	case auth.RoleProfessor:
		p, err := h.store.FindProfessorByEmail(c.Request.Context(), req.Email)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if p != nil {
			id, name, email, password = p.ID, p.Name, p.Email, p.Password
		}
	}

	if id == "" || password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tokens, err := auth.Issue(id, req.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 id,
		"name":               name,
		"email":              email,
		"role":               req.Role,
		"access_token":       tokens.AccessToken,
		"expires_at":         tokens.AccessExp.Unix(),
		"refresh_token":      tokens.RefreshToken,
		"refresh_expires_at": tokens.RefreshExp.Unix(),
	})
}

func nowUTC() time.Time { return time.Now().UTC() }
