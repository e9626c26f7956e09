package reports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tradelens/hts-tracker/internal/reports/drivers"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// ReportService renders trade charts into workbooks and archives them.
type ReportService struct {
	Driver StorageDriver
	now    func() time.Time
}

func NewReportService(driver StorageDriver) *ReportService {
	return &ReportService{Driver: driver, now: time.Now}
}

// FileName is the download name of a workbook rendered for hsCode on day.
func FileName(hsCode string, day time.Time) string {
	return fmt.Sprintf("trade-%s-%s.xlsx", hsCode, day.UTC().Format("20060102"))
}

// Archive renders the chart, stores it under "<hsCode>/<id>.xlsx" and returns its metadata.
func (s *ReportService) Archive(ctx context.Context, chart *model.TradeChart) (*Report, error) {
	buf, err := RenderWorkbook(chart)
	if err != nil {
		return nil, err
	}
	size := int64(buf.Len())

	key, err := drivers.NewReportKey(chart.HSCode)
	if err != nil {
		return nil, err
	}

	if err := s.Driver.Save(ctx, key, buf); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := s.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned report", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	now := s.now().UTC()
	report := &Report{
		ID:        key.ID,
		HSCode:    chart.HSCode,
		FileName:  FileName(chart.HSCode, now),
		Key:       key.String(),
		URL:       url,
		Size:      size,
		MimeType:  ContentTypeXLSX,
		CreatedAt: now,
	}

	slog.InfoContext(ctx, "trade report archived", "id", key.ID, "key", key.String(), "size", size)
	return report, nil
}

// Download parses key and opens the stored workbook. Malformed keys fail with
// drivers.ErrInvalidKey before storage is touched.
func (s *ReportService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	parsed, err := drivers.ParseReportKey(key)
	if err != nil {
		return nil, err
	}
	return s.Driver.Open(ctx, parsed)
}
