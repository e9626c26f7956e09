package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/hscode"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/utils"
)

// HSCodeService reads the hs_codes reference table.
type HSCodeService struct {
	db *gorm.DB
}

// NewHSCodeService creates a new instance of HSCodeService.
func NewHSCodeService(db *gorm.DB) *HSCodeService {
	return &HSCodeService{db: db}
}

// Search validates the query and returns matching codes ordered by id. A 6-digit
// query matches every code with that prefix; a 10-digit query matches exactly.
func (s *HSCodeService) Search(ctx context.Context, filter model.HSCodeFilter) (*model.HSCodeSearchResult, error) {
	if err := hscode.ValidateSearch(filter.Query); err != nil {
		return nil, err
	}

	page := utils.Paginate(filter.Offset, filter.Limit)

	query := s.db.WithContext(ctx).Model(&model.HSCode{})
	if hscode.IsPrefix(filter.Query) {
		query = query.Where("id LIKE ?", hscode.SearchPattern(filter.Query))
	} else {
		query = query.Where("id = ?", filter.Query)
	}

	var codes []model.HSCode
	if err := query.Order("id ASC").Scopes(page.Scope).Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to search HS codes: %w", err)
	}

	return &model.HSCodeSearchResult{
		Query:   filter.Query,
		Prefix:  hscode.IsPrefix(filter.Query),
		HSCodes: codes,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}, nil
}

// GetByID returns one reference code or a NotFound error.
func (s *HSCodeService) GetByID(ctx context.Context, id string) (*model.HSCode, error) {
	var code model.HSCode
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewError(model.KindNotFound, "", err)
		}
		return nil, fmt.Errorf("failed to get HS code %s: %w", id, err)
	}
	return &code, nil
}

// GetDescription returns the stored description, or the not-available placeholder
// when the code is unknown or has none. Lookup errors other than not-found are returned.
func (s *HSCodeService) GetDescription(ctx context.Context, id string) (string, error) {
	code, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.DescriptionNotAvailable, nil
		}
		return "", err
	}
	return code.DescriptionOrDefault(), nil
}

// GetByIDs returns the codes among ids that exist, keyed by id.
func (s *HSCodeService) GetByIDs(ctx context.Context, ids []string) (map[string]model.HSCode, error) {
	result := make(map[string]model.HSCode, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var codes []model.HSCode
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to get HS codes: %w", err)
	}
	for _, c := range codes {
		result[c.ID] = c
	}
	return result, nil
}
