package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradelens/hts-tracker/internal/reports/drivers"
)

// ContentTypeXLSX is the MIME type of rendered workbooks.
const ContentTypeXLSX = drivers.ContentTypeXLSX

// Report describes an archived trade workbook.
type Report struct {
	ID        uuid.UUID `json:"id"`
	HSCode    string    `json:"hsCode"`
	FileName  string    `json:"fileName"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
