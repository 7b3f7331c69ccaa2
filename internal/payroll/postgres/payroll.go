package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/payroll"
)

// PayrollRepository implements the payroll.Repository interface using GORM.
type PayrollRepository struct {
	db *gorm.DB
}

func NewPayrollRepository(db *gorm.DB) payroll.Repository {
	return &PayrollRepository{db: db}
}

func (r *PayrollRepository) GetPayslips(ctx context.Context, orgID, batchID uuid.UUID) ([]*payroll.Payslip, error) {
	var payslips []*payroll.Payslip
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND batch_id = ? AND is_deleted = ?", orgID, batchID, false).
		Order("employee_name ASC").
		Find(&payslips).Error
	return payslips, err
}

// ReplacePayslips supersedes a batch's payslip rows in one transaction so the
// snapshot a run reads is never half-updated. Superseded rows are soft
// deleted, not removed: issues keep a valid payslip reference and the
// restrict foreign key stays satisfied.
func (r *PayrollRepository) ReplacePayslips(ctx context.Context, orgID, batchID uuid.UUID, payslips []*payroll.Payslip) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payroll.Payslip{}).
			Where("organization_id = ? AND batch_id = ? AND is_deleted = ?", orgID, batchID, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error; err != nil {
			return err
		}
		if len(payslips) == 0 {
			return nil
		}
		return tx.Create(payslips).Error
	})
}

// GetLiveValidation returns the single non-deleted run for a batch, or nil.
func (r *PayrollRepository) GetLiveValidation(ctx context.Context, orgID, batchID uuid.UUID) (*payroll.Validation, error) {
	var v payroll.Validation
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND batch_id = ? AND is_deleted = ?", orgID, batchID, false).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PayrollRepository) GetValidation(ctx context.Context, orgID, validationID uuid.UUID) (*payroll.Validation, error) {
	var v payroll.Validation
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

func (r *PayrollRepository) CreateValidation(ctx context.Context, v *payroll.Validation) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *PayrollRepository) UpdateValidation(ctx context.Context, v *payroll.Validation) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// SoftDeleteValidation frees the one-live-run-per-batch slot. The row stays
// for history; the partial unique index only covers is_deleted = false.
func (r *PayrollRepository) SoftDeleteValidation(ctx context.Context, validationID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&payroll.Validation{}).
		Where("id = ?", validationID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

// CompleteRun persists the finished run and its issues atomically.
func (r *PayrollRepository) CompleteRun(ctx context.Context, v *payroll.Validation, issues []*payroll.Issue) error {
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

func (r *PayrollRepository) GetIssues(ctx context.Context, orgID, validationID uuid.UUID) ([]*payroll.Issue, error) {
	var issues []*payroll.Issue
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND validation_id = ?", orgID, validationID).
		Order("severity DESC, created_at ASC").
		Find(&issues).Error
	return issues, err
}

func (r *PayrollRepository) GetIssue(ctx context.Context, orgID, issueID uuid.UUID) (*payroll.Issue, error) {
	var issue payroll.Issue
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

func (r *PayrollRepository) UpdateIssue(ctx context.Context, issue *payroll.Issue) error {
	return r.db.WithContext(ctx).Save(issue).Error
}
