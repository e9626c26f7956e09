package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// TrackedCodeStore persists the user_hs_codes table.
type TrackedCodeStore struct {
	db *gorm.DB
}

func NewTrackedCodeStore(db *gorm.DB) *TrackedCodeStore {
	return &TrackedCodeStore{db: db}
}

// Exists reports whether the user already tracks hsCode.
func (s *TrackedCodeStore) Exists(ctx context.Context, userID, hsCode string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.TrackedCode{}).
		Where("user_id = ? AND hs_code_id = ?", userID, hsCode).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check tracked code: %w", err)
	}
	return count > 0, nil
}

func (s *TrackedCodeStore) Create(ctx context.Context, code *model.TrackedCode) error {
	if err := s.db.WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create tracked code: %w", err)
	}
	return nil
}

// Delete removes the (user, code) pair and returns the number of rows deleted.
func (s *TrackedCodeStore) Delete(ctx context.Context, userID, hsCode string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND hs_code_id = ?", userID, hsCode).
		Delete(&model.TrackedCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete tracked code: %w", result.Error)
	}
	return result.RowsAffected, nil
}

type trackedCodeRow struct {
	HSCodeID    string
	TradeType   model.TradeDirection
	CreatedAt   time.Time
	Description *string
}

// ListByUser returns the user's tracked codes joined with their descriptions, oldest first.
func (s *TrackedCodeStore) ListByUser(ctx context.Context, userID string) ([]model.TrackedCodeView, error) {
	var rows []trackedCodeRow
	err := s.db.WithContext(ctx).
		Table("user_hs_codes AS u").
		Select("u.hs_code_id, u.trade_type, u.created_at, h.hs_code_description AS description").
		Joins("LEFT JOIN hs_codes AS h ON h.id = u.hs_code_id").
		Where("u.user_id = ?", userID).
		Order("u.created_at ASC, u.hs_code_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked codes for user %s: %w", userID, err)
	}

	views := make([]model.TrackedCodeView, 0, len(rows))
	for _, r := range rows {
		description := model.DescriptionNotAvailable
		if r.Description != nil && *r.Description != "" {
			description = *r.Description
		}
		views = append(views, model.TrackedCodeView{
			HSCode:      r.HSCodeID,
			Description: description,
			TradeType:   r.TradeType,
			TrackedAt:   r.CreatedAt,
		})
	}
	return views, nil
}
