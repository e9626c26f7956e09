package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuthService provides database access for user profiles.
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new AuthService instance
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		db: db,
	}
}

// GetProfile retrieves the profile for userID. gorm.ErrRecordNotFound is returned
// unwrapped when the user has no profile row yet.
func (as *AuthService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is empty")
	}

	var profile Profile
	result := as.db.WithContext(ctx).Where("id = ?", userID).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.DebugContext(ctx, "profile not found", "user_id", userID)
			return nil, result.Error
		}
		slog.ErrorContext(ctx, "failed to fetch profile from database",
			"user_id", userID,
			"error", result.Error,
		)
		return nil, fmt.Errorf("failed to fetch profile: %w", result.Error)
	}

	return &profile, nil
}

// UpsertProfile creates or replaces a profile. Used when seeding development data.
func (as *AuthService) UpsertProfile(ctx context.Context, profile *Profile) error {
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("profile ID is empty")
	}

	result := as.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name"}),
	}).Create(profile)
	if result.Error != nil {
		slog.ErrorContext(ctx, "failed to upsert profile",
			"user_id", profile.ID,
			"error", result.Error,
		)
		return fmt.Errorf("failed to upsert profile: %w", result.Error)
	}
	return nil
}
