package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/testprepai/testprep-backend/internal/middleware"
	"github.com/testprepai/testprep-backend/internal/response"
	"github.com/testprepai/testprep-backend/internal/service"
)

// AttemptHandler handles attempt lifecycle and result endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/quizzes/:quiz_id/attempts
// Begins a live attempt, or resumes the in-progress one. A completed attempt
// is reset for a retake with all answers cleared.
func (h *AttemptHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	resp, err := h.attemptService.Start(c.Request.Context(), quizID, claims.UserID)
	switch {
	case errors.Is(err, service.ErrAttemptFinalized):
		// The clock ran out while the attempt was offline; it was graded.
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinalized)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case err != nil:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	default:
		response.Success(c, http.StatusCreated, resp)
	}
}

// State godoc
// GET /api/v1/attempts/:attempt_id/state
// Returns the live view of an in-progress attempt so a reloaded client can
// re-render the palette and countdown without re-posting Start.
func (h *AttemptHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.State(attemptID, claims.UserID)
	switch {
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrAttemptFinalized):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinalized)
	case err != nil:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	default:
		response.Success(c, http.StatusOK, state)
	}
}

// Submit godoc
// POST /api/v1/attempts/:attempt_id/submit
// Grades the attempt over plain HTTP. Fallback for clients whose WebSocket
// cannot reconnect; the stream's submit action is the primary path.
func (h *AttemptHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.attemptService.Submit(attemptID, claims.UserID)
	switch {
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrAttemptFinalized):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinalized)
	case err != nil:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	default:
		response.Success(c, http.StatusOK, gin.H{
			"status": "completed",
			"score":  result.Score,
		})
	}
}

// ListResults godoc
// GET /api/v1/attempts?page=&per_page=
// Lists the user's completed attempts, newest first.
func (h *AttemptHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, perPage := parsePagination(c)
	attempts, total, err := h.attemptService.ListResults(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, buildPagination(page, perPage, total))
}

// GetResult godoc
// GET /api/v1/attempts/:attempt_id/result
// Returns a stored result snapshot plus the derived subject breakdown.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	resp, err := h.attemptService.GetResult(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
