package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/reports"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

type TradeStatsRouter struct {
	stats   *service.TradeStatsService
	reports *reports.ReportService
}

func NewTradeStatsRouter(stats *service.TradeStatsService, reportService *reports.ReportService) *TradeStatsRouter {
	return &TradeStatsRouter{stats: stats, reports: reportService}
}

// HandleChart handles GET /api/v1/trade-stats/:hsCode/chart
func (r *TradeStatsRouter) HandleChart(c *gin.Context) {
	chart, err := r.stats.Chart(c.Request.Context(), c.Param("hsCode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// HandleExport handles GET /api/v1/trade-stats/:hsCode/export and streams an xlsx workbook.
func (r *TradeStatsRouter) HandleExport(c *gin.Context) {
	chart, err := r.stats.Chart(c.Request.Context(), c.Param("hsCode"))
	if err != nil {
		writeError(c, err)
		return
	}

	buf, err := reports.RenderWorkbook(chart)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.FileName(chart.HSCode, time.Now())))
	c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
}

// HandleArchive handles POST /api/v1/trade-stats/:hsCode/reports
func (r *TradeStatsRouter) HandleArchive(c *gin.Context) {
	chart, err := r.stats.Chart(c.Request.Context(), c.Param("hsCode"))
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := r.reports.Archive(c.Request.Context(), chart)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to archive trade report", "hsCode", chart.HSCode, "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
