package reports

import (
	"context"
	"io"
	"time"

	"github.com/tradelens/hts-tracker/internal/reports/drivers"
)

// StorageDriver keeps archived trade workbooks. Keys follow the drivers.ReportKey
// layout and every object is stored as drivers.ContentTypeXLSX, so callers never pass
// a content type.
type StorageDriver interface {
	// Save writes the workbook under key.
	Save(ctx context.Context, key drivers.ReportKey, body io.Reader) error

	// Open streams a stored workbook back.
	Open(ctx context.Context, key drivers.ReportKey) (io.ReadCloser, error)

	// Delete is a no-op for keys that are already gone.
	Delete(ctx context.Context, key drivers.ReportKey) error

	// GenerateURL returns a link the client can download the workbook from.
	GenerateURL(ctx context.Context, key drivers.ReportKey, expires time.Duration) (string, error)
}
