package drivers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ContentTypeXLSX is the only content type report storage accepts.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrInvalidKey  = errors.New("invalid report key")
	ErrNotWorkbook = errors.New("stored object is not a report workbook")
)

var hsCodePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ReportKey locates an archived workbook as "<hsCode>/<id>.xlsx", so every report for
// a code shares one prefix.
type ReportKey struct {
	HSCode string
	ID     uuid.UUID
}

// NewReportKey allocates a fresh key for hsCode.
func NewReportKey(hsCode string) (ReportKey, error) {
	key := ReportKey{HSCode: hsCode, ID: uuid.New()}
	if err := key.Validate(); err != nil {
		return ReportKey{}, err
	}
	return key, nil
}

// ParseReportKey reverses String. Anything outside the key layout is rejected.
func ParseReportKey(s string) (ReportKey, error) {
	hsCode, file, ok := strings.Cut(s, "/")
	name, isXLSX := strings.CutSuffix(file, ".xlsx")
	if !ok || !isXLSX {
		return ReportKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	id, err := uuid.Parse(name)
	// uuid.Parse also takes urn and braced forms; only the canonical one round-trips
	if err != nil || id.String() != name {
		return ReportKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}

	key := ReportKey{HSCode: hsCode, ID: id}
	if err := key.Validate(); err != nil {
		return ReportKey{}, err
	}
	return key, nil
}

func (k ReportKey) Validate() error {
	if !hsCodePattern.MatchString(k.HSCode) || k.ID == uuid.Nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
	}
	return nil
}

func (k ReportKey) String() string {
	return k.HSCode + "/" + k.ID.String() + ".xlsx"
}

// FileName is the object's base name, used for Content-Disposition.
func (k ReportKey) FileName() string {
	return k.ID.String() + ".xlsx"
}
