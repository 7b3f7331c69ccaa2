package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/roster"
)

// RosterRepository implements the roster.Repository interface using GORM.
type RosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) roster.Repository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) GetShifts(ctx context.Context, orgID, rosterID uuid.UUID) ([]*roster.Shift, error) {
	var shifts []*roster.Shift
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND roster_id = ? AND is_deleted = ?", orgID, rosterID, false).
		Order("employee_id ASC, shift_date ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

// ReplaceShifts supersedes a roster's shift rows in one transaction so the
// snapshot a run reads is never half-updated. Superseded rows are soft
// deleted, not removed: issues keep a valid shift reference and the restrict
// foreign key stays satisfied.
func (r *RosterRepository) ReplaceShifts(ctx context.Context, orgID, rosterID uuid.UUID, shifts []*roster.Shift) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&roster.Shift{}).
			Where("organization_id = ? AND roster_id = ? AND is_deleted = ?", orgID, rosterID, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error; err != nil {
			return err
		}
		if len(shifts) == 0 {
			return nil
		}
		return tx.Create(shifts).Error
	})
}

// GetLiveValidation returns the single non-deleted run for a roster, or nil.
func (r *RosterRepository) GetLiveValidation(ctx context.Context, orgID, rosterID uuid.UUID) (*roster.Validation, error) {
	var v roster.Validation
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND roster_id = ? AND is_deleted = ?", orgID, rosterID, false).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *RosterRepository) GetValidation(ctx context.Context, orgID, validationID uuid.UUID) (*roster.Validation, error) {
	var v roster.Validation
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", validationID, orgID).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRunNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *RosterRepository) CreateValidation(ctx context.Context, v *roster.Validation) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *RosterRepository) UpdateValidation(ctx context.Context, v *roster.Validation) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// SoftDeleteValidation frees the one-live-run-per-roster slot. The row stays
// for history; the partial unique index only covers is_deleted = false.
func (r *RosterRepository) SoftDeleteValidation(ctx context.Context, validationID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&roster.Validation{}).
		Where("id = ?", validationID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

// CompleteRun persists the finished run and its issues atomically.
func (r *RosterRepository) CompleteRun(ctx context.Context, v *roster.Validation, issues []*roster.Issue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(v).Error; err != nil {
			return err
		}
		if len(issues) == 0 {
			return nil
		}
		return tx.Create(issues).Error
	})
}

func (r *RosterRepository) GetIssues(ctx context.Context, orgID, validationID uuid.UUID) ([]*roster.Issue, error) {
	var issues []*roster.Issue
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND validation_id = ?", orgID, validationID).
		Order("severity DESC, created_at ASC").
		Find(&issues).Error
	return issues, err
}

func (r *RosterRepository) GetIssue(ctx context.Context, orgID, issueID uuid.UUID) (*roster.Issue, error) {
	var issue roster.Issue
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", issueID, orgID).
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrIssueNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (r *RosterRepository) UpdateIssue(ctx context.Context, issue *roster.Issue) error {
	return r.db.WithContext(ctx).Save(issue).Error
}
