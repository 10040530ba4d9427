package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/middleware"
	"github.com/loanworks/loanbook_app/internal/utils/statement"
)

// reconciliationHandler handles HTTP requests for statement reconciliation.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
	}
}

// registerReconciliationRoutes registers routes related to reconciliation.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	recon := rg.Group("/reconciliation")
	{
		recon.POST("", h.runReconciliation)
		recon.GET("/sessions", h.listSessions)
		recon.GET("/sessions/:id", h.getSession)
	}
}

// runReconciliation godoc
// @Summary Reconcile an uploaded settlement statement
// @Description Parses an uploaded CSV statement and matches every row against recorded repayments and batches. Matching never mutates loan records.
// @Tags reconciliation
// @Accept  mpfd
// @Produce  json
// @Param   statement formData file true "CSV settlement statement with reference and amount columns"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Missing file, unparsable statement, or no rows"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to reconcile statement"
// @Security BearerAuth
// @Router /reconciliation [post]
func (h *reconciliationHandler) runReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	runByUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("statement")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statement file is required (multipart field 'statement')"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded statement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded statement"})
		return
	}
	defer file.Close()

	rows, err := statement.Parse(file)
	if err != nil {
		logger.Warn("Failed to parse statement", slog.String("filename", fileHeader.Filename), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse statement: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("filename", fileHeader.Filename), slog.Int("rows", len(rows)))
	logger.Info("Received statement for reconciliation")

	resp, err := h.reconciliationService.Reconcile(c.Request.Context(), rows, runByUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reconcile statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile statement"})
		}
		return
	}

	logger.Info("Reconciliation completed",
		slog.String("session_id", resp.SessionID),
		slog.Int("exact", resp.ExactCount),
		slog.Int("mismatch", resp.MismatchCount),
		slog.Int("unmatched", resp.UnmatchedCount),
	)
	c.JSON(http.StatusOK, resp)
}

// getSession godoc
// @Summary Get a reconciliation session by ID
// @Description Retrieves the stored summary of a past reconciliation run
// @Tags reconciliation
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to retrieve session"
// @Security BearerAuth
// @Router /reconciliation/sessions/{id} [get]
func (h *reconciliationHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	session, err := h.reconciliationService.GetSessionByID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to get reconciliation session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// listSessions godoc
// @Summary List reconciliation sessions
// @Description Retrieves a paginated list of past reconciliation runs, newest first
// @Tags reconciliation
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.ListSessionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list sessions"
// @Security BearerAuth
// @Router /reconciliation/sessions [get]
func (h *reconciliationHandler) listSessions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListSessionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.reconciliationService.ListSessions(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list reconciliation sessions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
