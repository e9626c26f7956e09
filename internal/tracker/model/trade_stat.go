package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatRecord is one row of the append-only monthly trade statistics series.
// Year and Month may be missing in upstream data; such rows are skipped when charting.
type TradeStatRecord struct {
	ID        uint                `gorm:"primaryKey;column:id" json:"id"`
	HSCodeID  string              `gorm:"type:varchar(10);column:hs_code_id;not null;index:idx_trade_stats_code_period,priority:1" json:"hsCodeId"`
	Year      *int                `gorm:"column:year_val;index:idx_trade_stats_code_period,priority:2" json:"yearVal"`
	Month     *int                `gorm:"column:month_val;index:idx_trade_stats_code_period,priority:3" json:"monthVal"`
	Value     decimal.NullDecimal `gorm:"type:numeric;column:value" json:"value"`
	Volume    decimal.NullDecimal `gorm:"type:numeric;column:volume" json:"volume"`
	TradeFlow string              `gorm:"type:varchar(50);column:trade_flow" json:"tradeFlow"`
}

func (t *TradeStatRecord) TableName() string {
	return "trade_stats"
}

// Period returns the first day of the record's month in UTC. ok is false when the
// year or month is missing or out of range.
func (t *TradeStatRecord) Period() (period time.Time, ok bool) {
	if t.Year == nil || t.Month == nil {
		return time.Time{}, false
	}
	year, month := *t.Year, *t.Month
	if year <= 0 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// ValueOrZero treats a missing value as zero.
func (t *TradeStatRecord) ValueOrZero() decimal.Decimal {
	if !t.Value.Valid {
		return decimal.Zero
	}
	return t.Value.Decimal
}

// VolumeOrZero treats a missing volume as zero.
func (t *TradeStatRecord) VolumeOrZero() decimal.Decimal {
	if !t.Volume.Valid {
		return decimal.Zero
	}
	return t.Volume.Decimal
}

// ChartPoint is the per-month total rendered as one bar. It is derived on every read
// and never stored.
type ChartPoint struct {
	Month      string          `json:"month"` // YYYY-MM-01
	TotalValue decimal.Decimal `json:"totalValue"`
	IsLatest   bool            `json:"isLatest"`
}

// TradeChart is the response of the chart endpoint
type TradeChart struct {
	HSCode      string       `json:"hsCode"`
	Points      []ChartPoint `json:"points"`
	LatestLabel string       `json:"latestLabel,omitempty"` // e.g. "February 2024"
}

// TradeSummary is the headline block of the dashboard.
type TradeSummary struct {
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalVolume   decimal.Decimal `json:"totalVolume"`
	GrowthPercent int64           `json:"growthPercent"`
	TrendingUp    bool            `json:"trendingUp"`
}
