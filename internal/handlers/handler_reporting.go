package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// reportingHandler handles HTTP requests for portfolio reports.
type reportingHandler struct {
	reportingService portssvc.ReportingService
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers routes related to portfolio reports.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/portfolio", h.portfolioSummary)
		reports.GET("/arrears", h.arrearsReport)
		reports.GET("/collections", h.collectionReport)
	}
}

// parseDateQuery reads a YYYY-MM-DD query parameter, defaulting when absent.
func parseDateQuery(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return parsed, true
}

// portfolioSummary godoc
// @Summary Portfolio summary
// @Description Aggregates the loan book as of a date, including portfolio-at-risk figures
// @Tags reports
// @Produce  json
// @Param   asOf query string false "As-of date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} dto.PortfolioSummaryResponse
// @Failure 400 {object} map[string]string "Invalid as-of date"
// @Failure 500 {object} map[string]string "Failed to compute summary"
// @Security BearerAuth
// @Router /reports/portfolio [get]
func (h *reportingHandler) portfolioSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := parseDateQuery(c, "asOf", time.Now().UTC())
	if !ok {
		return
	}

	summary, err := h.reportingService.PortfolioSummary(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to compute portfolio summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// arrearsReport godoc
// @Summary Arrears report
// @Description Lists every loan with a shortfall as of a date, the oldest delinquency first
// @Tags reports
// @Produce  json
// @Param   asOf query string false "As-of date (YYYY-MM-DD, defaults to today)"
// @Success 200 {array} dto.ArrearsReportRow
// @Failure 400 {object} map[string]string "Invalid as-of date"
// @Failure 500 {object} map[string]string "Failed to compute report"
// @Security BearerAuth
// @Router /reports/arrears [get]
func (h *reportingHandler) arrearsReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := parseDateQuery(c, "asOf", time.Now().UTC())
	if !ok {
		return
	}

	rows, err := h.reportingService.ArrearsReport(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to compute arrears report", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// collectionReport godoc
// @Summary Collection report
// @Description Sums the amounts collected between two dates inclusive, split by individual and batch source
// @Tags reports
// @Produce  json
// @Param   from query string true "Start date (YYYY-MM-DD)"
// @Param   to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.CollectionReportResponse
// @Failure 400 {object} map[string]string "Invalid or inverted date range"
// @Failure 500 {object} map[string]string "Failed to compute report"
// @Security BearerAuth
// @Router /reports/collections [get]
func (h *reportingHandler) collectionReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	now := time.Now().UTC()
	from, ok := parseDateQuery(c, "from", now.AddDate(0, -1, 0))
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to", now)
	if !ok {
		return
	}

	report, err := h.reportingService.CollectionReport(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to compute collection report", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute report"})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}
