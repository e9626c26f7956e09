package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/hscode"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// RecentStatsLimit is how many of the newest records the dashboard summarises.
const RecentStatsLimit = 10

// TradeStatsService reads the monthly trade statistics series.
type TradeStatsService struct {
	db *gorm.DB
}

func NewTradeStatsService(db *gorm.DB) *TradeStatsService {
	return &TradeStatsService{db: db}
}

// ListByCode returns every record for hsCode ordered by year then month.
func (s *TradeStatsService) ListByCode(ctx context.Context, hsCode string) ([]model.TradeStatRecord, error) {
	var records []model.TradeStatRecord
	if err := s.db.WithContext(ctx).
		Where("hs_code_id = ?", hsCode).
		Order("year_val ASC").
		Order("month_val ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list trade stats for %s: %w", hsCode, err)
	}
	return records, nil
}

// Chart aggregates the series for a trackable code into monthly chart points.
func (s *TradeStatsService) Chart(ctx context.Context, hsCode string) (*model.TradeChart, error) {
	code, err := hscode.ValidateTrackable(hsCode)
	if err != nil {
		return nil, err
	}

	records, err := s.ListByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	points := AggregateMonthly(records)
	return &model.TradeChart{
		HSCode:      code,
		Points:      points,
		LatestLabel: LatestLabel(points),
	}, nil
}

// LatestForCodes returns up to limit of the newest dated records across codes.
func (s *TradeStatsService) LatestForCodes(ctx context.Context, codes []string, limit int) ([]model.TradeStatRecord, error) {
	records := []model.TradeStatRecord{}
	if len(codes) == 0 {
		return records, nil
	}
	if limit <= 0 {
		limit = RecentStatsLimit
	}

	if err := s.db.WithContext(ctx).
		Where("hs_code_id IN ?", codes).
		Where("year_val IS NOT NULL AND month_val IS NOT NULL").
		Order("year_val DESC").
		Order("month_val DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent trade stats: %w", err)
	}
	return records, nil
}
