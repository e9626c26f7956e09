package reports

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/reports/drivers"
)

type HTTPHandler struct {
	Service *ReportService
}

func NewHTTPHandler(service *ReportService) *HTTPHandler {
	return &HTTPHandler{Service: service}
}

// Download handles GET /reports/*key for workbooks kept on local storage.
func (h *HTTPHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_ARGUMENT", "message": "key is required"})
		return
	}

	reader, err := h.Service.Download(c.Request.Context(), key)
	if errors.Is(err, drivers.ErrInvalidKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_ARGUMENT", "message": "malformed report key"})
		return
	}
	if err != nil {
		slog.WarnContext(c.Request.Context(), "report not found", "key", key, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "report not found"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", ContentTypeXLSX)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to stream report", "key", key, "error", err)
	}
}
