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

// repaymentHandler handles HTTP requests related to individual repayments and
// the loan ledger.
type repaymentHandler struct {
	repaymentService portssvc.RepaymentSvcFacade
}

// newRepaymentHandler creates a new repaymentHandler.
func newRepaymentHandler(rs portssvc.RepaymentSvcFacade) *repaymentHandler {
	return &repaymentHandler{
		repaymentService: rs,
	}
}

// registerRepaymentRoutes registers routes related to repayments.
func registerRepaymentRoutes(rg *gin.RouterGroup, repaymentService portssvc.RepaymentSvcFacade) {
	h := newRepaymentHandler(repaymentService)

	loans := rg.Group("/loans/:id")
	{
		loans.POST("/repayments", h.createRepayment)
		loans.GET("/repayments", h.listRepayments)
		loans.GET("/ledger", h.getLedger)
	}

	repayments := rg.Group("/repayments")
	{
		repayments.GET("/:txnId", h.getRepayment)
		repayments.POST("/reverse", h.reverseRepayment)
	}
}

// createRepayment godoc
// @Summary Record a repayment against a loan
// @Description Records a payment and spreads it forward across schedule months; later months are flagged as advance payments
// @Tags repayments
// @Accept  json
// @Produce  json
// @Param   id path string true "Loan ID"
// @Param   repayment body dto.CreateRepaymentRequest true "Payment details"
// @Success 201 {array} dto.RepaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 409 {object} map[string]string "Duplicate settlement reference or loan completed"
// @Failure 500 {object} map[string]string "Failed to record repayment"
// @Security BearerAuth
// @Router /loans/{id}/repayments [post]
func (h *repaymentHandler) createRepayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	var req dto.CreateRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRepayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("loan_id", loanID), slog.String("settlement_ref", req.SettlementReference))
	logger.Info("Received request to record repayment", slog.String("amount", req.Amount.String()))

	txns, err := h.repaymentService.CreateRepayment(c.Request.Context(), loanID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error recording repayment", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDuplicateSettlement), errors.Is(err, services.ErrLoanCompleted):
			logger.Warn("Conflict recording repayment", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record repayment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record repayment"})
		}
		return
	}

	logger.Info("Repayment recorded", slog.Int("months_covered", len(txns)))
	c.JSON(http.StatusCreated, dto.ToRepaymentResponses(txns))
}

// listRepayments godoc
// @Summary List repayments for a loan
// @Description Retrieves a paginated list of repayment transactions for a loan, newest first
// @Tags repayments
// @Produce  json
// @Param   id path string true "Loan ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Param   includeReversed query bool false "Include reversed transactions" default(false)
// @Success 200 {object} dto.ListRepaymentsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list repayments"
// @Security BearerAuth
// @Router /loans/{id}/repayments [get]
func (h *repaymentHandler) listRepayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	var params dto.ListRepaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.repaymentService.ListRepaymentsByLoan(c.Request.Context(), loanID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list repayments", slog.String("loan_id", loanID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list repayments"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getLedger godoc
// @Summary Get a loan's ledger
// @Description Retrieves the append-only ledger of signed payment deltas for a loan
// @Tags repayments
// @Produce  json
// @Param   id path string true "Loan ID"
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 404 {object} map[string]string "Loan not found"
// @Failure 500 {object} map[string]string "Failed to retrieve ledger"
// @Security BearerAuth
// @Router /loans/{id}/ledger [get]
func (h *repaymentHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	entries, err := h.repaymentService.GetLedger(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		} else {
			logger.Error("Failed to get ledger", slog.String("loan_id", loanID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerEntryResponses(entries))
}

// getRepayment godoc
// @Summary Get a repayment transaction by ID
// @Description Retrieves a single repayment transaction
// @Tags repayments
// @Produce  json
// @Param   txnId path string true "Transaction ID"
// @Success 200 {object} dto.RepaymentResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /repayments/{txnId} [get]
func (h *repaymentHandler) getRepayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("txnId")

	txn, err := h.repaymentService.GetRepaymentByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get repayment", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRepaymentResponse(txn))
}

// reverseRepayment godoc
// @Summary Reverse a repayment
// @Description Reverses every transaction recorded under a settlement reference, including its advance-month allocations
// @Tags repayments
// @Accept  json
// @Produce  json
// @Param   reversal body dto.ReverseRepaymentRequest true "Settlement reference to reverse"
// @Success 200 {array} dto.RepaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Settlement reference not found"
// @Failure 409 {object} map[string]string "Already reversed"
// @Failure 500 {object} map[string]string "Failed to reverse repayment"
// @Security BearerAuth
// @Router /repayments/reverse [post]
func (h *repaymentHandler) reverseRepayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReverseRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("settlement_ref", req.SettlementReference))

	txns, err := h.repaymentService.ReverseRepayment(c.Request.Context(), req.SettlementReference, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No transactions for settlement reference"})
		case errors.Is(err, services.ErrAlreadyReversed):
			logger.Warn("Settlement already reversed")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse repayment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse repayment"})
		}
		return
	}

	logger.Info("Repayment reversed", slog.Int("transactions", len(txns)))
	c.JSON(http.StatusOK, dto.ToRepaymentResponses(txns))
}
