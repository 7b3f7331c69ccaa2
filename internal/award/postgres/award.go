package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	awardDatamodel "github.com/awardly/compliance-engine/internal/core/datamodel/award"
)

// AwardRepository implements the award.Repository interface using GORM.
// Soft-deleted rows are filtered here; callers never see them.
type AwardRepository struct {
	db *gorm.DB
}

func NewAwardRepository(db *gorm.DB) award.Repository {
	return &AwardRepository{db: db}
}

func (r *AwardRepository) GetByID(ctx context.Context, id uuid.UUID) (*award.Award, error) {
	var row awardDatamodel.Award
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAwardNotFound
		}
		return nil, err
	}
	return toDomainAward(&row), nil
}

func (r *AwardRepository) GetByType(ctx context.Context, awardType award.Type) (*award.Award, error) {
	var row awardDatamodel.Award
	err := r.db.WithContext(ctx).
		Where("award_type = ? AND is_deleted = ?", string(awardType), false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAwardNotFound
		}
		return nil, err
	}
	return toDomainAward(&row), nil
}

func (r *AwardRepository) GetAll(ctx context.Context) ([]*award.Award, error) {
	var rows []*awardDatamodel.Award
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("award_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*award.Award, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAward(row))
	}
	return out, nil
}

// GetLevels returns every non-deleted window for one (award, level) pair. The
// catalog does the effective-date selection; the repository just fetches.
func (r *AwardRepository) GetLevels(ctx context.Context, awardID uuid.UUID, levelNumber int) ([]*award.Level, error) {
	var rows []*awardDatamodel.AwardLevel
	err := r.db.WithContext(ctx).
		Where("award_id = ? AND level_number = ? AND is_deleted = ?", awardID, levelNumber, false).
		Order("effective_from DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*award.Level, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLevel(row))
	}
	return out, nil
}

func (r *AwardRepository) GetAllLevels(ctx context.Context, awardID uuid.UUID) ([]*award.Level, error) {
	var rows []*awardDatamodel.AwardLevel
	err := r.db.WithContext(ctx).
		Where("award_id = ? AND is_deleted = ?", awardID, false).
		Order("level_number ASC, effective_from DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*award.Level, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLevel(row))
	}
	return out, nil
}

func toDomainAward(row *awardDatamodel.Award) *award.Award {
	return &award.Award{
		ID:                       row.ID,
		AwardType:                award.Type(row.AwardType),
		Name:                     row.Name,
		AwardCode:                row.AwardCode,
		Description:              row.Description,
		SaturdayPenaltyRate:      row.SaturdayPenaltyRate,
		SundayPenaltyRate:        row.SundayPenaltyRate,
		PublicHolidayPenaltyRate: row.PublicHolidayPenaltyRate,
		CasualLoadingRate:        row.CasualLoadingRate,
		MinimumShiftHours:        row.MinimumShiftHours,
		MaxConsecutiveDays:       row.MaxConsecutiveDays,
		MealBreakThresholdHours:  row.MealBreakThresholdHours,
		MealBreakMinutes:         row.MealBreakMinutes,
		MinimumRestPeriodHours:   row.MinimumRestPeriodHours,
		ReducedRestPeriodHours:   row.ReducedRestPeriodHours,
		OrdinaryWeeklyHours:      row.OrdinaryWeeklyHours,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
}

func toDomainLevel(row *awardDatamodel.AwardLevel) *award.Level {
	return &award.Level{
		ID:                 row.ID,
		AwardID:            row.AwardID,
		LevelNumber:        row.LevelNumber,
		LevelName:          row.LevelName,
		FullTimeHourlyRate: row.FullTimeHourlyRate,
		PartTimeHourlyRate: row.PartTimeHourlyRate,
		CasualHourlyRate:   row.CasualHourlyRate,
		EffectiveFrom:      row.EffectiveFrom,
		EffectiveTo:        row.EffectiveTo,
		IsActive:           row.IsActive,
	}
}
