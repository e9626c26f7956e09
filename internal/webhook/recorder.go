package webhook

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// GormRecorder persists webhook attempts to the webhook_deliveries table.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) RecordAttempt(ctx context.Context, attempt Attempt) error {
	row := &model.WebhookDelivery{
		RequestID:  attempt.Payload.RequestID,
		HSCode:     attempt.Payload.HSCode,
		TradeType:  attempt.Payload.TradeType,
		Attempt:    attempt.Number,
		StatusCode: attempt.StatusCode,
		Succeeded:  attempt.Succeeded(),
	}
	if attempt.Err != nil {
		row.Error = attempt.Err.Error()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to store webhook delivery: %w", err)
	}
	return nil
}

// ListByRequestID returns the attempts made for one payload, oldest first.
func (r *GormRecorder) ListByRequestID(ctx context.Context, requestID string) ([]model.WebhookDelivery, error) {
	var rows []model.WebhookDelivery
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("attempt ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	return rows, nil
}
