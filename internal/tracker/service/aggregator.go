package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

const monthKeyLayout = "2006-01-02"

// AggregateMonthly turns raw trade statistics for one HS code into a chronologically
// ordered series of monthly totals. Records without a usable year or month are dropped,
// values of records sharing a month are summed, and only the last point is marked latest.
// The input may be in any order and is not modified.
func AggregateMonthly(records []model.TradeStatRecord) []model.ChartPoint {
	totals := make(map[time.Time]decimal.Decimal)
	for i := range records {
		period, ok := records[i].Period()
		if !ok {
			continue
		}
		totals[period] = totals[period].Add(records[i].ValueOrZero())
	}

	periods := make([]time.Time, 0, len(totals))
	for period := range totals {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})

	points := make([]model.ChartPoint, 0, len(periods))
	for _, period := range periods {
		points = append(points, model.ChartPoint{
			Month:      period.Format(monthKeyLayout),
			TotalValue: totals[period],
		})
	}
	if len(points) > 0 {
		points[len(points)-1].IsLatest = true
	}
	return points
}

// LatestLabel renders the month of the latest point as "January 2024". Empty when
// there are no points.
func LatestLabel(points []model.ChartPoint) string {
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].IsLatest {
			continue
		}
		month, err := time.Parse(monthKeyLayout, points[i].Month)
		if err != nil {
			return ""
		}
		return month.Format("January 2006")
	}
	return ""
}

// Summarize computes dashboard totals over the given records together with the
// growth between the two most recent records, as a whole percentage. Growth is zero
// with fewer than two dated records or when the previous value is zero.
func Summarize(records []model.TradeStatRecord) model.TradeSummary {
	summary := model.TradeSummary{
		TotalValue:  decimal.Zero,
		TotalVolume: decimal.Zero,
	}
	for i := range records {
		summary.TotalValue = summary.TotalValue.Add(records[i].ValueOrZero())
		summary.TotalVolume = summary.TotalVolume.Add(records[i].VolumeOrZero())
	}

	summary.GrowthPercent = growthPercent(records)
	summary.TrendingUp = summary.GrowthPercent >= 0
	return summary
}

func growthPercent(records []model.TradeStatRecord) int64 {
	dated := make([]model.TradeStatRecord, 0, len(records))
	for _, r := range records {
		if _, ok := r.Period(); ok {
			dated = append(dated, r)
		}
	}
	if len(dated) < 2 {
		return 0
	}

	// newest first; stable so equal periods keep input order
	sort.SliceStable(dated, func(i, j int) bool {
		pi, _ := dated[i].Period()
		pj, _ := dated[j].Period()
		return pi.After(pj)
	})

	current := dated[0].ValueOrZero()
	previous := dated[1].ValueOrZero()
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
