package model

import (
	"time"

	"github.com/google/uuid"
)

// TradeDirection selects whether tracked statistics cover imports or exports.
type TradeDirection string

const (
	TradeDirectionImport TradeDirection = "Import"
	TradeDirectionExport TradeDirection = "Export"
)

// Valid reports whether d is one of the two supported directions. Matching is exact.
func (d TradeDirection) Valid() bool {
	return d == TradeDirectionImport || d == TradeDirectionExport
}

// TrackedCode is a (user, HS code) pair the user monitors. The pair is unique and the
// trade direction is fixed when the row is created.
type TrackedCode struct {
	BaseModel
	UserID         string         `gorm:"type:varchar(255);column:user_id;not null;uniqueIndex:idx_user_hs_code,priority:1" json:"userId"`
	HSCodeID       string         `gorm:"type:varchar(10);column:hs_code_id;not null;uniqueIndex:idx_user_hs_code,priority:2" json:"hsCode"`
	SubscriptionID uuid.UUID      `gorm:"type:uuid;column:subscription_id;not null" json:"subscriptionId"`
	TradeType      TradeDirection `gorm:"type:varchar(10);column:trade_type;not null" json:"tradeType"`
}

func (t *TrackedCode) TableName() string {
	return "user_hs_codes"
}

// TrackedCodeView is a tracked code joined with its reference description.
type TrackedCodeView struct {
	HSCode      string         `json:"hsCode"`
	Description string         `json:"hsCodeDescription"`
	TradeType   TradeDirection `json:"tradeType"`
	TrackedAt   time.Time      `json:"trackedAt"`
}

// TrackRequest is the body of POST /api/v1/tracked
type TrackRequest struct {
	HSCode    string         `json:"hsCode" binding:"required"`
	TradeType TradeDirection `json:"tradeType" binding:"required"`
}
