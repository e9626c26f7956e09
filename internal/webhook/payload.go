package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// timestampLayout matches JavaScript's Date.toISOString, which the automation side parses.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Payload is the body posted to the automation endpoint. One payload is built per
// tracking attempt and resent unchanged on every retry.
type Payload struct {
	HSCode            string               `json:"hsCode"`
	HSCodeDescription string               `json:"hsCodeDescription"`
	TradeType         model.TradeDirection `json:"tradeType"`
	Timestamp         string               `json:"timestamp"`
	RequestID         string               `json:"requestId"`
}

func newPayload(hsCode, description string, direction model.TradeDirection, now time.Time) Payload {
	return Payload{
		HSCode:            hsCode,
		HSCodeDescription: description,
		TradeType:         direction,
		Timestamp:         now.UTC().Format(timestampLayout),
		RequestID:         uuid.NewString(),
	}
}
