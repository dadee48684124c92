package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lending/backend/internal/domain/lending"
)

// GormBankCalendarRepository implements lending.BankCalendarRepository using
// GORM. The calendar is a singleton row; Get returns nil when none exists.
type GormBankCalendarRepository struct {
	db *gorm.DB
}

// NewGormBankCalendarRepository creates a new bank calendar repository
func NewGormBankCalendarRepository(db *gorm.DB) *GormBankCalendarRepository {
	return &GormBankCalendarRepository{db: db}
}

// Get returns the calendar record, or nil when none exists yet
func (r *GormBankCalendarRepository) Get(ctx context.Context) (*lending.BankCalendar, error) {
	var calendar lending.BankCalendar
	err := r.db.WithContext(ctx).
		Order("created_at asc").
		First(&calendar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load bank calendar: %w", err)
	}
	return &calendar, nil
}

// Save creates or updates the calendar record
func (r *GormBankCalendarRepository) Save(ctx context.Context, calendar *lending.BankCalendar) error {
	if err := r.db.WithContext(ctx).Save(calendar).Error; err != nil {
		return fmt.Errorf("failed to save bank calendar: %w", err)
	}
	return nil
}

var _ lending.BankCalendarRepository = (*GormBankCalendarRepository)(nil)
