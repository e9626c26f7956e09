// Package seed loads reference data (HS codes, profiles, subscriptions and trade
// statistics) from a YAML file into the database.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/hscode"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

type HSCodeEntry struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

type ProfileEntry struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
}

type SubscriptionEntry struct {
	ID               string `yaml:"id"`
	UserID           string `yaml:"user_id"`
	Status           string `yaml:"status"`
	PlanType         string `yaml:"plan_type"`
	CurrentPeriodEnd string `yaml:"current_period_end"` // YYYY-MM-DD
}

type TradeStatEntry struct {
	HSCode    string `yaml:"hs_code"`
	Year      *int   `yaml:"year"`
	Month     *int   `yaml:"month"`
	Value     string `yaml:"value"`
	Volume    string `yaml:"volume"`
	TradeFlow string `yaml:"trade_flow"`
}

// File is the layout of a seed file.
type File struct {
	HSCodes       []HSCodeEntry       `yaml:"hs_codes"`
	Profiles      []ProfileEntry      `yaml:"profiles"`
	Subscriptions []SubscriptionEntry `yaml:"subscriptions"`
	TradeStats    []TradeStatEntry    `yaml:"trade_stats"`
}

// Total is the number of rows the file describes.
func (f *File) Total() int {
	return len(f.HSCodes) + len(f.Profiles) + len(f.Subscriptions) + len(f.TradeStats)
}

// Result counts the rows written per table.
type Result struct {
	HSCodes       int
	Profiles      int
	Subscriptions int
	TradeStats    int
}

// Load reads and validates a seed file. Relative paths resolve against the working directory.
func Load(path string) (*File, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for i, c := range f.HSCodes {
		if err := hscode.ValidateSearch(c.ID); err != nil {
			return fmt.Errorf("hs_codes[%d]: invalid id %q", i, c.ID)
		}
	}
	for i, p := range f.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profiles[%d]: missing id", i)
		}
	}
	for i, s := range f.Subscriptions {
		if s.UserID == "" {
			return fmt.Errorf("subscriptions[%d]: missing user_id", i)
		}
		if s.Status == "" {
			return fmt.Errorf("subscriptions[%d]: missing status", i)
		}
		if s.ID != "" {
			if _, err := uuid.Parse(s.ID); err != nil {
				return fmt.Errorf("subscriptions[%d]: invalid id: %w", i, err)
			}
		}
		if s.CurrentPeriodEnd != "" {
			if _, err := time.Parse(time.DateOnly, s.CurrentPeriodEnd); err != nil {
				return fmt.Errorf("subscriptions[%d]: invalid current_period_end: %w", i, err)
			}
		}
	}
	for i, t := range f.TradeStats {
		if t.HSCode == "" {
			return fmt.Errorf("trade_stats[%d]: missing hs_code", i)
		}
		if _, err := parseDecimal(t.Value); err != nil {
			return fmt.Errorf("trade_stats[%d]: invalid value: %w", i, err)
		}
		if _, err := parseDecimal(t.Volume); err != nil {
			return fmt.Errorf("trade_stats[%d]: invalid volume: %w", i, err)
		}
	}
	return nil
}

// Apply writes the file in a single transaction. HS codes, profiles and subscriptions
// are upserted by id; the trade statistics of every code present in the file are
// replaced, so applying the same file twice leaves the same rows. Progress is drawn
// on progress when it is non-nil.
func Apply(ctx context.Context, db *gorm.DB, f *File, progress io.Writer) (*Result, error) {
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(f.Total(),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("seeding"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)

	result := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range f.HSCodes {
			code := model.HSCode{ID: c.ID, Description: c.Description}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"hs_code_description"}),
			}).Create(&code).Error; err != nil {
				return fmt.Errorf("failed to seed hs code %s: %w", c.ID, err)
			}
			result.HSCodes++
			_ = bar.Add(1)
		}

		for _, p := range f.Profiles {
			profile := auth.Profile{ID: p.ID, Email: p.Email, FullName: p.FullName}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"email", "full_name"}),
			}).Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to seed profile %s: %w", p.ID, err)
			}
			result.Profiles++
			_ = bar.Add(1)
		}

		for _, s := range f.Subscriptions {
			sub := toSubscription(s)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"user_id", "status", "plan_type", "current_period_end", "updated_at"}),
			}).Create(&sub).Error; err != nil {
				return fmt.Errorf("failed to seed subscription for %s: %w", s.UserID, err)
			}
			result.Subscriptions++
			_ = bar.Add(1)
		}

		if len(f.TradeStats) > 0 {
			codes := statCodes(f.TradeStats)
			if err := tx.Where("hs_code_id IN ?", codes).Delete(&model.TradeStatRecord{}).Error; err != nil {
				return fmt.Errorf("failed to clear trade stats: %w", err)
			}

			records := make([]model.TradeStatRecord, 0, len(f.TradeStats))
			for _, t := range f.TradeStats {
				records = append(records, toTradeStat(t))
			}
			if err := tx.CreateInBatches(&records, 500).Error; err != nil {
				return fmt.Errorf("failed to seed trade stats: %w", err)
			}
			result.TradeStats = len(records)
			_ = bar.Add(len(records))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = bar.Finish()
	return result, nil
}

func toSubscription(s SubscriptionEntry) model.Subscription {
	sub := model.Subscription{UserID: s.UserID, Status: s.Status, PlanType: s.PlanType}
	if s.ID != "" {
		sub.ID = uuid.MustParse(s.ID)
	} else {
		// stable id so re-seeding updates instead of duplicating
		sub.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("subscription:"+s.UserID+":"+s.PlanType))
	}
	if s.CurrentPeriodEnd != "" {
		end, _ := time.Parse(time.DateOnly, s.CurrentPeriodEnd)
		sub.CurrentPeriodEnd = &end
	}
	return sub
}

func toTradeStat(t TradeStatEntry) model.TradeStatRecord {
	value, _ := parseDecimal(t.Value)
	volume, _ := parseDecimal(t.Volume)
	return model.TradeStatRecord{
		HSCodeID:  t.HSCode,
		Year:      t.Year,
		Month:     t.Month,
		Value:     value,
		Volume:    volume,
		TradeFlow: t.TradeFlow,
	}
}

func statCodes(stats []TradeStatEntry) []string {
	codes := make([]string, 0, len(stats))
	for _, t := range stats {
		if !slices.Contains(codes, t.HSCode) {
			codes = append(codes, t.HSCode)
		}
	}
	return codes
}

// parseDecimal treats an empty string as a missing value.
func parseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
