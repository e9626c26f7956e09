package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

func intPtr(v int) *int { return &v }

func stat(year, month int, value int64) model.TradeStatRecord {
	return model.TradeStatRecord{
		HSCodeID: "0101210010",
		Year:     intPtr(year),
		Month:    intPtr(month),
		Value:    decimal.NewNullDecimal(decimal.NewFromInt(value)),
	}
}

func TestAggregateMonthly_SumsPerMonth(t *testing.T) {
	records := []model.TradeStatRecord{
		stat(2024, 1, 100),
		stat(2024, 1, 50),
		stat(2024, 2, 200),
	}

	points := AggregateMonthly(records)

	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-01", points[0].Month)
	assert.True(t, decimal.NewFromInt(150).Equal(points[0].TotalValue))
	assert.False(t, points[0].IsLatest)
	assert.Equal(t, "2024-02-01", points[1].Month)
	assert.True(t, decimal.NewFromInt(200).Equal(points[1].TotalValue))
	assert.True(t, points[1].IsLatest)
}

func TestAggregateMonthly_UnorderedInputAcrossYears(t *testing.T) {
	records := []model.TradeStatRecord{
		stat(2024, 3, 1),
		stat(2023, 12, 2),
		stat(2024, 1, 3),
		stat(2023, 2, 4),
	}

	points := AggregateMonthly(records)

	months := make([]string, 0, len(points))
	for _, p := range points {
		months = append(months, p.Month)
	}
	assert.Equal(t, []string{"2023-02-01", "2023-12-01", "2024-01-01", "2024-03-01"}, months)
	assert.True(t, points[3].IsLatest)
}

func TestAggregateMonthly_DropsUndatedRecords(t *testing.T) {
	noYear := stat(2024, 1, 10)
	noYear.Year = nil
	noMonth := stat(2024, 1, 10)
	noMonth.Month = nil
	zeroMonth := stat(2024, 0, 10)
	badMonth := stat(2024, 13, 10)

	points := AggregateMonthly([]model.TradeStatRecord{noYear, noMonth, zeroMonth, badMonth, stat(2024, 5, 7)})

	require.Len(t, points, 1)
	assert.Equal(t, "2024-05-01", points[0].Month)
	assert.True(t, decimal.NewFromInt(7).Equal(points[0].TotalValue))
}

func TestAggregateMonthly_MissingValueCountsAsZero(t *testing.T) {
	missing := stat(2024, 4, 0)
	missing.Value = decimal.NullDecimal{}

	points := AggregateMonthly([]model.TradeStatRecord{missing, stat(2024, 4, 25)})

	require.Len(t, points, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(points[0].TotalValue))
}

func TestAggregateMonthly_Empty(t *testing.T) {
	points := AggregateMonthly(nil)
	assert.NotNil(t, points)
	assert.Empty(t, points)

	for _, p := range points {
		assert.False(t, p.IsLatest)
	}
}

func TestAggregateMonthly_Idempotent(t *testing.T) {
	records := []model.TradeStatRecord{
		stat(2022, 7, 5), stat(2022, 7, 6), stat(2021, 1, 1), stat(2023, 9, 12),
	}

	first := AggregateMonthly(records)
	second := AggregateMonthly(records)

	assert.Equal(t, first, second)
}

func TestAggregateMonthly_ExactlyOneLatest(t *testing.T) {
	records := []model.TradeStatRecord{
		stat(2020, 1, 1), stat(2020, 2, 1), stat(2020, 3, 1), stat(2020, 3, 1),
	}

	latest := 0
	for _, p := range AggregateMonthly(records) {
		if p.IsLatest {
			latest++
		}
	}
	assert.Equal(t, 1, latest)
}

func TestLatestLabel(t *testing.T) {
	points := AggregateMonthly([]model.TradeStatRecord{stat(2024, 1, 1), stat(2024, 2, 1)})
	assert.Equal(t, "February 2024", LatestLabel(points))
	assert.Equal(t, "", LatestLabel(nil))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		records    []model.TradeStatRecord
		wantValue  int64
		wantGrowth int64
		wantUp     bool
	}{
		{
			name:       "growth from previous month",
			records:    []model.TradeStatRecord{stat(2024, 1, 100), stat(2024, 2, 150)},
			wantValue:  250,
			wantGrowth: 50,
			wantUp:     true,
		},
		{
			name:       "decline",
			records:    []model.TradeStatRecord{stat(2024, 2, 75), stat(2024, 1, 100)},
			wantValue:  175,
			wantGrowth: -25,
			wantUp:     false,
		},
		{
			name:       "single record has no growth",
			records:    []model.TradeStatRecord{stat(2024, 1, 100)},
			wantValue:  100,
			wantGrowth: 0,
			wantUp:     true,
		},
		{
			name:       "previous zero has no growth",
			records:    []model.TradeStatRecord{stat(2024, 1, 0), stat(2024, 2, 80)},
			wantValue:  80,
			wantGrowth: 0,
			wantUp:     true,
		},
		{
			name:       "rounds to whole percent",
			records:    []model.TradeStatRecord{stat(2024, 1, 3), stat(2024, 2, 4)},
			wantValue:  7,
			wantGrowth: 33,
			wantUp:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.records)
			assert.True(t, decimal.NewFromInt(tt.wantValue).Equal(summary.TotalValue), "total %s", summary.TotalValue)
			assert.Equal(t, tt.wantGrowth, summary.GrowthPercent)
			assert.Equal(t, tt.wantUp, summary.TrendingUp)
		})
	}
}

func TestSummarize_Volume(t *testing.T) {
	a := stat(2024, 1, 1)
	a.Volume = decimal.NewNullDecimal(decimal.NewFromInt(40))
	b := stat(2024, 2, 1)

	summary := Summarize([]model.TradeStatRecord{a, b})
	assert.True(t, decimal.NewFromInt(40).Equal(summary.TotalVolume))
}
