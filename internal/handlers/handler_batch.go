package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/services"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// batchHandler handles HTTP requests related to batch (group) repayments.
type batchHandler struct {
	batchService portssvc.BatchSvcFacade
}

// newBatchHandler creates a new batchHandler.
func newBatchHandler(bs portssvc.BatchSvcFacade) *batchHandler {
	return &batchHandler{
		batchService: bs,
	}
}

// registerBatchRoutes registers routes related to batch repayments.
func registerBatchRoutes(rg *gin.RouterGroup, batchService portssvc.BatchSvcFacade) {
	h := newBatchHandler(batchService)

	batches := rg.Group("/batches")
	{
		batches.POST("", h.createBatch)
		batches.GET("", h.listBatches)
		batches.GET("/:id", h.getBatch)
		batches.POST("/:id/reverse", h.reverseBatch)
	}
}

// createBatch godoc
// @Summary Record a batch repayment for a group
// @Description Splits one settlement receipt across the included members of a repayment group; shortfalls are distributed pro-rata
// @Tags batches
// @Accept  json
// @Produce  json
// @Param   batch body dto.CreateBatchRepaymentRequest true "Batch payment details"
// @Success 201 {object} dto.BatchRepaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Member loan not found"
// @Failure 409 {object} map[string]string "Duplicate settlement reference or member outside group"
// @Failure 500 {object} map[string]string "Failed to record batch repayment"
// @Security BearerAuth
// @Router /batches [post]
func (h *batchHandler) createBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateBatchRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBatchRepayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("group", req.GroupName), slog.String("settlement_ref", req.SettlementReference))
	logger.Info("Received request to record batch repayment",
		slog.String("actual_amount", req.ActualAmount.String()),
		slog.Int("members", len(req.Members)),
	)

	resp, err := h.batchService.CreateBatchRepayment(c.Request.Context(), req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error recording batch", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDuplicateSettlement), errors.Is(err, services.ErrMemberOutsideGroup):
			logger.Warn("Conflict recording batch", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record batch repayment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record batch repayment"})
		}
		return
	}

	logger.Info("Batch repayment recorded",
		slog.String("batch_id", resp.BatchID),
		slog.Int("success", resp.SuccessCount),
		slog.Int("failure", resp.FailureCount),
	)
	c.JSON(http.StatusCreated, resp)
}

// getBatch godoc
// @Summary Get a batch repayment by ID
// @Description Retrieves a batch repayment with its per-member credit breakdown
// @Tags batches
// @Produce  json
// @Param   id path string true "Batch ID"
// @Success 200 {object} dto.BatchRepaymentResponse
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 500 {object} map[string]string "Failed to retrieve batch"
// @Security BearerAuth
// @Router /batches/{id} [get]
func (h *batchHandler) getBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("id")

	resp, err := h.batchService.GetBatchByID(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		} else {
			logger.Error("Failed to get batch", slog.String("batch_id", batchID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve batch"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listBatches godoc
// @Summary List batch repayments
// @Description Retrieves a paginated list of batch repayments, newest first
// @Tags batches
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.ListBatchesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list batches"
// @Security BearerAuth
// @Router /batches [get]
func (h *batchHandler) listBatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListBatchesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.batchService.ListBatches(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list batches", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list batches"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseBatch godoc
// @Summary Reverse a batch repayment
// @Description Reverses every member credit that committed, replaying the stored amounts
// @Tags batches
// @Produce  json
// @Param   id path string true "Batch ID"
// @Success 200 {object} dto.BatchRepaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 409 {object} map[string]string "Batch already reversed"
// @Failure 500 {object} map[string]string "Failed to reverse batch"
// @Security BearerAuth
// @Router /batches/{id}/reverse [post]
func (h *batchHandler) reverseBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("id")

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.batchService.ReverseBatch(c.Request.Context(), batchID, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		case errors.Is(err, services.ErrAlreadyReversed):
			logger.Warn("Batch already reversed", slog.String("batch_id", batchID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse batch", slog.String("batch_id", batchID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse batch"})
		}
		return
	}

	logger.Info("Batch repayment reversed", slog.String("batch_id", batchID))
	c.JSON(http.StatusOK, resp)
}
