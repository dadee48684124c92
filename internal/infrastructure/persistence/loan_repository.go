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

// LoanSortFields contains allowed sort fields for loans
var LoanSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"is_closed":  true,
	"closed_at":  true,
}

// GormLoanRepository implements lending.LoanRepository using GORM. Loans
// always load as full aggregates: application with tariff, schedule with
// payments, accounts with entries.
type GormLoanRepository struct {
	db *gorm.DB
}

// NewGormLoanRepository creates a new loan repository
func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

func (r *GormLoanRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Application").
		Preload("Application.Tariff").
		Preload("Schedule").
		Preload("Schedule.Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence asc")
		}).
		Preload("Accounts").
		Preload("Accounts.Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("booked_at asc, created_at asc")
		})
}

// FindByID finds a loan by ID
func (r *GormLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	var loan lending.Loan
	err := r.preloaded(ctx).First(&loan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return &loan, nil
}

// FindAll finds all loans with filtering
func (r *GormLoanRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lending.Loan, error) {
	var loans []lending.Loan
	q := r.preloaded(ctx).Model(&lending.Loan{})
	if closed, ok := filter.Filters["is_closed"]; ok {
		q = q.Where("is_closed = ?", closed)
	}
	q = applySort(q, filter, LoanSortFields)
	q = applyPagination(q, filter)
	if err := q.Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// FindOpen finds all loans that are not closed
func (r *GormLoanRepository) FindOpen(ctx context.Context) ([]lending.Loan, error) {
	var loans []lending.Loan
	err := r.preloaded(ctx).
		Where("is_closed = ?", false).
		Order("created_at asc").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}
	return loans, nil
}

// FindByCustomer finds all loans for a customer
func (r *GormLoanRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]lending.Loan, error) {
	var loans []lending.Loan
	err := r.preloaded(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loans by customer: %w", err)
	}
	return loans, nil
}

// Save creates or updates a loan together with its schedule, accounts and
// entries. Association records are upserted, never implicitly deleted.
func (r *GormLoanRepository) Save(ctx context.Context, loan *lending.Loan) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(loan).Error
	if err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}
	return nil
}

var _ lending.LoanRepository = (*GormLoanRepository)(nil)
