package model

// DescriptionNotAvailable is shown wherever an HS code has no stored description.
const DescriptionNotAvailable = "Description not available"

// HSCode is a Harmonized System reference code. 6-digit codes are category
// prefixes; only 10-digit codes can be tracked.
type HSCode struct {
	ID          string `gorm:"type:varchar(10);column:id;primaryKey" json:"id"`
	Description string `gorm:"type:text;column:hs_code_description" json:"hsCodeDescription"`
}

func (h *HSCode) TableName() string {
	return "hs_codes"
}

// Trackable reports whether the code is a fully specified 10-digit code.
func (h *HSCode) Trackable() bool {
	return len(h.ID) == 10
}

// DescriptionOrDefault returns the description or the not-available placeholder.
func (h *HSCode) DescriptionOrDefault() string {
	if h == nil || h.Description == "" {
		return DescriptionNotAvailable
	}
	return h.Description
}

// HSCodeFilter is used when searching reference codes
type HSCodeFilter struct {
	Query  string `json:"q"`
	Offset *int   `json:"offset,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// HSCodeSearchResult wraps the codes matched by a search
type HSCodeSearchResult struct {
	Query   string   `json:"query"`
	Prefix  bool     `json:"prefix"`
	HSCodes []HSCode `json:"hsCodes"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}
