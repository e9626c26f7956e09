package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// SubscriptionService reads subscriptions written by the billing side.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// GetActiveSubscription returns the user's newest active subscription, or nil when
// the user has none.
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active subscription for user %s: %w", userID, err)
	}
	return &sub, nil
}

// GetLatestSubscription returns the user's newest subscription in any status, or nil.
func (s *SubscriptionService) GetLatestSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription for user %s: %w", userID, err)
	}
	return &sub, nil
}
