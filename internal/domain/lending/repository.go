package lending

import (
	"context"

	"github.com/google/uuid"
	"github.com/lending/backend/internal/domain/shared"
)

// TariffRepository defines the interface for tariff persistence
type TariffRepository interface {
	// FindByID finds a tariff by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tariff, error)

	// FindAll finds all tariffs with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Tariff, error)

	// FindActive finds all tariffs currently offered
	FindActive(ctx context.Context) ([]Tariff, error)

	// Save creates or updates a tariff
	Save(ctx context.Context, tariff *Tariff) error

	// Delete removes a tariff
	Delete(ctx context.Context, id uuid.UUID) error
}

// LoanApplicationRepository defines the interface for loan application persistence
type LoanApplicationRepository interface {
	// FindByID finds an application by ID, tariff preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*LoanApplication, error)

	// FindAll finds all applications with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]LoanApplication, error)

	// FindByStatus finds applications in a given status
	FindByStatus(ctx context.Context, status LoanApplicationStatus) ([]LoanApplication, error)

	// Save creates or updates an application
	Save(ctx context.Context, application *LoanApplication) error

	// Delete removes an application
	Delete(ctx context.Context, id uuid.UUID) error
}

// LoanRepository defines the interface for loan persistence.
// Loans load with their application, schedule and accounts attached.
type LoanRepository interface {
	// FindByID finds a loan by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)

	// FindAll finds all loans with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Loan, error)

	// FindOpen finds all loans that are not closed
	FindOpen(ctx context.Context) ([]Loan, error)

	// FindByCustomer finds all loans for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Loan, error)

	// Save creates or updates a loan together with its owned accounts,
	// entries and schedule
	Save(ctx context.Context, loan *Loan) error
}

// BankCalendarRepository defines the interface for the singleton bank calendar
type BankCalendarRepository interface {
	// Get returns the calendar record, or nil when none exists yet
	Get(ctx context.Context) (*BankCalendar, error)

	// Save creates or updates the calendar record
	Save(ctx context.Context, calendar *BankCalendar) error
}
