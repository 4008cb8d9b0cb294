package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dissertation/internal/auth"
	"dissertation/internal/dissertation"
	"dissertation/internal/metrics"
	"dissertation/internal/queue"
)

// ---- Requests ----

type createRequestBody struct {
	StudentID     string `json:"student_id" binding:"required"`
	ProfessorID   string `json:"professor_id" binding:"required"`
	SessionID     string `json:"session_id" binding:"required"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Justification string `json:"justification"`
}

func (h *Handler) ListRequests(c *gin.Context) {
	requests, err := h.store.ListRequests(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if requests == nil {
		requests = []dissertation.Request{}
	}
	c.JSON(http.StatusOK, requests)
}

// CreateRequest registers a new supervision request. Requests are
// always born pending; any status in the body is ignored.
func (h *Handler) CreateRequest(c *gin.Context) {
	var req createRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r := &dissertation.Request{
		Status:        dissertation.StatusPending,
		Title:         req.Title,
		Description:   req.Description,
		Justification: req.Justification,
		StudentID:     req.StudentID,
		ProfessorID:   req.ProfessorID,
		SessionID:     req.SessionID,
	}
	if err := h.store.CreateRequest(c.Request.Context(), r); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	if err := h.store.DeleteRequest(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type updateRequestBody struct {
	Status        *dissertation.Status `json:"status"`
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Justification *string              `json:"justification"`
}

// UpdateRequest is the transition endpoint. Free-text fields are
// patched unconditionally; when a status is proposed the workflow
// engine arbitrates the transition. A policy rejection comes back as
// 400 with the request already normalized to pending.
func (h *Handler) UpdateRequest(c *gin.Context) {
	var body updateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	patch := dissertation.RequestPatch{
		Title:         body.Title,
		Description:   body.Description,
		Justification: body.Justification,
	}

	// Pure text edit, no transition proposed.
	if body.Status == nil {
		req, err := h.store.GetRequest(c.Request.Context(), id)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if req == nil {
			h.writeError(c, dissertation.ErrRequestNotFound)
			return
		}
		if err := h.store.UpdateRequestFields(c.Request.Context(), id, patch); err != nil {
			h.writeError(c, err)
			return
		}
		updated, err := h.store.GetRequest(c.Request.Context(), id)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
		return
	}

	proposed := *body.Status
	updated, err := h.engine.Transition(c.Request.Context(), id, proposed, patch, nowUTC())
	if err != nil {
		// Only here does a missing professor or session mean a policy
		// rejection rather than a lookup miss, so the 400 mapping
		// happens on this path and not in writeError.
		if dissertation.IsPolicyReject(err) {
			metrics.TransitionsTotal.WithLabelValues(string(proposed), "rejected").Inc()
			metrics.PolicyRejectsTotal.WithLabelValues(rejectReason(err)).Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.writeError(c, err)
		return
	}
	metrics.TransitionsTotal.WithLabelValues(string(proposed), "committed").Inc()

	h.notify(c, updated, proposed)
	c.JSON(http.StatusOK, updated)
}

// notify publishes a transition event for the worker. Best-effort: a
// queue failure is logged and the response is unaffected.
func (h *Handler) notify(c *gin.Context, req *dissertation.Request, status dissertation.Status) {
	if h.queue == nil {
		return
	}
	n := queue.Notification{
		Type:        "request." + string(status),
		RequestID:   req.ID,
		Status:      string(status),
		StudentID:   req.StudentID,
		ProfessorID: req.ProfessorID,
	}
	if err := h.queue.Publish(c.Request.Context(), n); err != nil {
		h.logger.Warn("notification publish failed",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, dissertation.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, dissertation.ErrAlreadyApprovedElsewhere):
		return "already_approved_elsewhere"
	case errors.Is(err, dissertation.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, dissertation.ErrOutsideWindow):
		return "outside_window"
	case errors.Is(err, dissertation.ErrProfessorNotFound):
		return "professor_not_found"
	}
	return "other"
}

// UploadDocument stores a document artifact and records it on the
// request through the gate. The role comes from the form; when the
// caller is authenticated the token role must match.
func (h *Handler) UploadDocument(c *gin.Context) {
	role := dissertation.UploadRole(c.PostForm("role"))
	if role != dissertation.RoleStudent && role != dissertation.RoleProfessor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be student or professor"})
		return
	}

	if claimsAny, ok := c.Get("claims"); ok {
		if claims, ok := claimsAny.(auth.Claims); ok && claims.Role != "" && claims.Role != string(role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "role mismatch"})
			return
		}
	}

	id := c.Param("id")
	req, err := h.store.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req == nil {
		h.writeError(c, dissertation.ErrRequestNotFound)
		return
	}
	// Check the gate before touching storage so a denied upload leaves
	// no orphaned artifact behind.
	if err := h.gate.Authorize(role, req); err != nil {
		metrics.UploadsTotal.WithLabelValues(string(role), "denied").Inc()
		h.writeError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	ref, err := h.storage.Save(c.Request.Context(), data, header.Filename)
	if err != nil {
		h.logger.Error("artifact save failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "document upload failed"})
		return
	}

	updated, err := h.gate.Attach(c.Request.Context(), role, id, ref)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(role), "denied").Inc()
		h.writeError(c, err)
		return
	}
	metrics.UploadsTotal.WithLabelValues(string(role), "stored").Inc()
	c.JSON(http.StatusOK, updated)
}
