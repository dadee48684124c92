package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lending/backend/internal/domain/lending"
	"github.com/lending/backend/internal/domain/shared"
)

// LoanApplicationSortFields contains allowed sort fields for loan applications
var LoanApplicationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"amount":     true,
	"term":       true,
	"status":     true,
}

// GormLoanApplicationRepository implements lending.LoanApplicationRepository
// using GORM
type GormLoanApplicationRepository struct {
	db *gorm.DB
}

// NewGormLoanApplicationRepository creates a new loan application repository
func NewGormLoanApplicationRepository(db *gorm.DB) *GormLoanApplicationRepository {
	return &GormLoanApplicationRepository{db: db}
}

// FindByID finds an application by ID with its tariff preloaded
func (r *GormLoanApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.LoanApplication, error) {
	var app lending.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Tariff").
		First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find loan application: %w", err)
	}
	return &app, nil
}

// FindAll finds all applications with filtering
func (r *GormLoanApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lending.LoanApplication, error) {
	var apps []lending.LoanApplication
	q := r.db.WithContext(ctx).Model(&lending.LoanApplication{}).Preload("Tariff")
	if status, ok := filter.Filters["status"]; ok {
		q = q.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		q = q.Where("customer_id = ?", customerID)
	}
	q = applySort(q, filter, LoanApplicationSortFields)
	q = applyPagination(q, filter)
	if err := q.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list loan applications: %w", err)
	}
	return apps, nil
}

// FindByStatus finds applications in a given status
func (r *GormLoanApplicationRepository) FindByStatus(ctx context.Context, status lending.LoanApplicationStatus) ([]lending.LoanApplication, error) {
	var apps []lending.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Tariff").
		Where("status = ?", status).
		Order("created_at asc").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loan applications by status: %w", err)
	}
	return apps, nil
}

// Save creates or updates an application
func (r *GormLoanApplicationRepository) Save(ctx context.Context, application *lending.LoanApplication) error {
	if err := r.db.WithContext(ctx).Save(application).Error; err != nil {
		return fmt.Errorf("failed to save loan application: %w", err)
	}
	return nil
}

// Delete removes an application
func (r *GormLoanApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&lending.LoanApplication{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete loan application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ lending.LoanApplicationRepository = (*GormLoanApplicationRepository)(nil)
