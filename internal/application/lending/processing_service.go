package lending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lending/backend/internal/domain/lending"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
)

// ProcessingService orchestrates the loan lifecycle and the batch settlement
// cycle: origination, payment registration, closing, and the end-of-day /
// end-of-month processing that moves money between a loan's accounts and
// advances the bank calendar.
//
// Settlement runs are serialized by a day-level mutex owned by the service,
// with a month-level mutex nested inside for the end-of-month pass. Both are
// released on every exit path. Origination, payment registration and closing
// are deliberately not covered by these locks and may interleave with a sweep
// in progress; callers must not assume account balances are stable while a
// sweep runs.
type ProcessingService struct {
	tariffs      lending.TariffRepository
	applications lending.LoanApplicationRepository
	loans        lending.LoanRepository
	calendars    lending.BankCalendarRepository
	logger       *zap.Logger

	dayMu   sync.Mutex
	monthMu sync.Mutex
}

// NewProcessingService creates a new ProcessingService
func NewProcessingService(
	tariffs lending.TariffRepository,
	applications lending.LoanApplicationRepository,
	loans lending.LoanRepository,
	calendars lending.BankCalendarRepository,
	logger *zap.Logger,
) *ProcessingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingService{
		tariffs:      tariffs,
		applications: applications,
		loans:        loans,
		calendars:    calendars,
		logger:       logger,
	}
}

// ProcessEndOfDay runs one full banking day: sweeps every loan's incoming
// payments out of the contract-service holding account, runs the
// end-of-month pass when the current date is the last day of its month, and
// advances the bank calendar by exactly one day. Returns the new current
// date.
//
// At most one run executes at a time across the process; a second concurrent
// call observes the calendar only after the first fully completes.
func (s *ProcessingService) ProcessEndOfDay(ctx context.Context) (time.Time, error) {
	s.dayMu.Lock()
	defer s.dayMu.Unlock()

	cal, err := s.currentCalendar(ctx)
	if err != nil {
		return time.Time{}, err
	}

	cal.ProcessingLock = true
	if err := s.calendars.Save(ctx, cal); err != nil {
		return time.Time{}, fmt.Errorf("failed to lock calendar: %w", err)
	}
	defer func() {
		// the lock flag must never survive a failed run
		if cal.ProcessingLock {
			cal.ProcessingLock = false
			if saveErr := s.calendars.Save(ctx, cal); saveErr != nil {
				s.logger.Error("failed to release calendar processing lock", zap.Error(saveErr))
			}
		}
	}()

	date := cal.CurrentTime
	if err := s.sweepContractServiceAccounts(ctx, date); err != nil {
		return time.Time{}, err
	}
	cal.MarkDailyProcessed()
	if err := s.calendars.Save(ctx, cal); err != nil {
		return time.Time{}, fmt.Errorf("failed to stamp daily processing time: %w", err)
	}

	if lending.IsLastDayOfMonth(date) {
		if err := s.processEndOfMonth(ctx, cal); err != nil {
			return time.Time{}, err
		}
	}

	newDate := cal.AdvanceDay()
	if err := s.calendars.Save(ctx, cal); err != nil {
		return time.Time{}, fmt.Errorf("failed to advance calendar: %w", err)
	}

	s.logger.Info("end of day processed",
		zap.Time("processed_date", date),
		zap.Time("new_date", newDate))
	return newDate, nil
}

// sweepContractServiceAccounts allocates every loan's parked incoming
// payments: interest is always satisfied before principal, leftover money
// stays parked in the contract-service account.
func (s *ProcessingService) sweepContractServiceAccounts(ctx context.Context, date time.Time) error {
	loans, err := s.loans.FindOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open loans: %w", err)
	}

	for i := range loans {
		loan := &loans[i]
		swept, err := s.sweepLoan(loan, date)
		if err != nil {
			return fmt.Errorf("sweep failed for loan %s: %w", loan.ID, err)
		}
		if !swept {
			continue
		}
		if err := s.loans.Save(ctx, loan); err != nil {
			return fmt.Errorf("failed to persist swept loan %s: %w", loan.ID, err)
		}
	}
	return nil
}

// sweepLoan applies the parked contract-service balance of one loan against
// its interest account first, then its general-debt account, each via a
// balanced entry pair. Returns whether anything was posted.
func (s *ProcessingService) sweepLoan(loan *lending.Loan, date time.Time) (bool, error) {
	contract, err := loan.Account(lending.AccountContractService)
	if err != nil {
		return false, err
	}
	amount := contract.Balance
	if !amount.IsPositive() {
		return false, nil
	}

	interest, err := loan.Account(lending.AccountInterest)
	if err != nil {
		return false, err
	}
	applied, err := s.applyPayment(contract, interest, amount, lending.SubTypeInterest, date)
	if err != nil {
		return false, err
	}
	amount = amount.Sub(applied)

	generalDebt, err := loan.Account(lending.AccountGeneralDebt)
	if err != nil {
		return false, err
	}
	if _, err := s.applyPayment(contract, generalDebt, amount, lending.SubTypeGeneralDebt, date); err != nil {
		return false, err
	}
	return true, nil
}

// applyPayment posts min(amount, outstanding) as a payment credit into the
// debt account and the opposite debit into the contract-service account.
// Returns the applied amount.
func (s *ProcessingService) applyPayment(
	contract, debt *lending.Account,
	amount decimal.Decimal,
	subType lending.EntrySubType,
	date time.Time,
) (decimal.Decimal, error) {
	applied := decimal.Min(amount, debt.Outstanding())
	if !applied.IsPositive() {
		return decimal.Zero, nil
	}

	money, err := valueobject.NewMoney(applied, debt.Currency)
	if err != nil {
		return decimal.Zero, err
	}
	credit, err := lending.NewEntry(money, lending.EntryPayment, subType, date)
	if err != nil {
		return decimal.Zero, err
	}
	if err := debt.AddEntry(credit); err != nil {
		return decimal.Zero, err
	}
	if err := contract.AddEntry(credit.Opposite()); err != nil {
		return decimal.Zero, err
	}
	return applied, nil
}

// processEndOfMonth posts the day's interest accrual for every open loan and
// stamps the monthly processing time. Runs nested inside the day lock.
func (s *ProcessingService) processEndOfMonth(ctx context.Context, cal *lending.BankCalendar) error {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()

	loans, err := s.loans.FindOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open loans: %w", err)
	}

	for i := range loans {
		loan := &loans[i]
		accrual, err := lending.AccrueInterest(loan, cal.CurrentTime)
		if err != nil {
			return fmt.Errorf("accrual failed for loan %s: %w", loan.ID, err)
		}
		if accrual.Amount.IsZero() {
			continue
		}
		interest, err := loan.Account(lending.AccountInterest)
		if err != nil {
			return err
		}
		// the loan-side leg of the accrual raises the outstanding interest
		if err := interest.AddEntry(accrual.Opposite()); err != nil {
			return err
		}
		if err := s.loans.Save(ctx, loan); err != nil {
			return fmt.Errorf("failed to persist accrual for loan %s: %w", loan.ID, err)
		}
	}

	cal.MarkMonthlyProcessed()
	if err := s.calendars.Save(ctx, cal); err != nil {
		return fmt.Errorf("failed to stamp monthly processing time: %w", err)
	}
	s.logger.Info("end of month processed", zap.Time("date", cal.CurrentTime), zap.Int("loans", len(loans)))
	return nil
}

// CreateLoanContract contracts an approved application: computes the
// schedule, opens the five loan accounts, posts the disbursement into the
// general-debt account and returns the persisted loan.
func (s *ProcessingService) CreateLoanContract(ctx context.Context, customerID uuid.UUID, app *lending.LoanApplication) (*lending.Loan, error) {
	if app == nil {
		return nil, shared.ErrInvalidInput
	}

	// the schedule counts from the application's own start date, so it is
	// computed before the status transition
	schedule, err := lending.CalculateScheduleForApplication(app)
	if err != nil {
		return nil, err
	}

	now, err := s.GetCurrentDate(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]*lending.Account, 0, len(lending.LoanAccountTypes()))
	for _, accountType := range lending.LoanAccountTypes() {
		acc, err := lending.NewAccount(app.Currency, accountType, now)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	if err := app.Contract(now); err != nil {
		return nil, err
	}

	loan, err := lending.NewLoan(customerID, app, schedule, accounts)
	if err != nil {
		return nil, err
	}

	generalDebt, err := loan.Account(lending.AccountGeneralDebt)
	if err != nil {
		return nil, err
	}
	principal, err := valueobject.NewMoney(app.Amount, app.Currency)
	if err != nil {
		return nil, err
	}
	disbursement, err := lending.NewEntry(principal.Negate(), lending.EntryTransfer, lending.SubTypeGeneralDebt, now)
	if err != nil {
		return nil, err
	}
	if err := generalDebt.AddEntry(disbursement); err != nil {
		return nil, err
	}

	if err := s.applications.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to persist contracted application: %w", err)
	}
	if err := s.loans.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to persist loan: %w", err)
	}

	s.logger.Info("loan contracted",
		zap.String("loan_id", loan.ID.String()),
		zap.String("application_id", app.ID.String()),
		zap.String("principal", app.Amount.String()))
	return loan, nil
}

// RegisterPayment parks an incoming payment in the loan's contract-service
// holding account. Money reaches the interest and principal accounts only at
// the next daily sweep.
func (s *ProcessingService) RegisterPayment(ctx context.Context, loan *lending.Loan, amount valueobject.Money) (*lending.Entry, error) {
	if loan == nil {
		return nil, shared.ErrInvalidInput
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	contract, err := loan.Account(lending.AccountContractService)
	if err != nil {
		return nil, err
	}

	now, err := s.GetCurrentDate(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := lending.NewEntry(amount, lending.EntryPayment, lending.SubTypeContractService, now)
	if err != nil {
		return nil, err
	}
	if err := contract.AddEntry(entry); err != nil {
		return nil, err
	}
	if err := s.loans.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	s.logger.Info("payment registered",
		zap.String("loan_id", loan.ID.String()),
		zap.String("amount", amount.String()))
	return entry, nil
}

// CloseLoanContract closes the loan and every one of its accounts when all
// five balances are exactly zero. Returns false, mutating nothing, when any
// balance is non-zero.
func (s *ProcessingService) CloseLoanContract(ctx context.Context, loan *lending.Loan) (bool, error) {
	if loan == nil {
		return false, shared.ErrInvalidInput
	}
	if !loan.CanBeClosed() {
		return false, nil
	}

	now, err := s.GetCurrentDate(ctx)
	if err != nil {
		return false, err
	}
	if err := loan.Close(now); err != nil {
		return false, err
	}
	if err := s.loans.Save(ctx, loan); err != nil {
		return false, fmt.Errorf("failed to persist closed loan: %w", err)
	}

	s.logger.Info("loan closed", zap.String("loan_id", loan.ID.String()))
	return true, nil
}

// GetCurrentDate returns the bank's current processing date, creating the
// calendar on first use
func (s *ProcessingService) GetCurrentDate(ctx context.Context) (time.Time, error) {
	cal, err := s.currentCalendar(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return cal.CurrentTime, nil
}

// SetCurrentDate moves the bank's current processing date
func (s *ProcessingService) SetCurrentDate(ctx context.Context, date time.Time) error {
	cal, err := s.currentCalendar(ctx)
	if err != nil {
		return err
	}
	cal.CurrentTime = date
	return s.calendars.Save(ctx, cal)
}

// currentCalendar loads the singleton calendar, creating it at the wall
// clock when none exists yet
func (s *ProcessingService) currentCalendar(ctx context.Context) (*lending.BankCalendar, error) {
	cal, err := s.calendars.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank calendar: %w", err)
	}
	if cal == nil {
		cal = lending.NewBankCalendar(time.Now().UTC())
		if err := s.calendars.Save(ctx, cal); err != nil {
			return nil, fmt.Errorf("failed to create bank calendar: %w", err)
		}
	}
	return cal, nil
}

// GetLoan loads a loan with its schedule and accounts
func (s *ProcessingService) GetLoan(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	return s.loans.FindByID(ctx, id)
}

// GetLoans lists loans
func (s *ProcessingService) GetLoans(ctx context.Context, filter shared.Filter) ([]lending.Loan, error) {
	return s.loans.FindAll(ctx, filter)
}

// CreateLoanApplication validates a new application against its tariff's
// acceptance rule and persists it. A failed acceptance surfaces as a
// field-keyed validation error rather than aborting the request flow.
func (s *ProcessingService) CreateLoanApplication(ctx context.Context, app *lending.LoanApplication) error {
	if app == nil {
		return shared.ErrInvalidInput
	}
	tariff := app.Tariff
	if tariff == nil {
		loaded, err := s.tariffs.FindByID(ctx, app.TariffID)
		if err != nil {
			return err
		}
		if loaded == nil {
			return shared.ErrNotFound
		}
		tariff = loaded
		app.Tariff = loaded
	}
	if verr := tariff.Validate(app); verr != nil {
		return verr
	}
	return s.applications.Save(ctx, app)
}

// UpsertLoanApplication persists an application without re-running acceptance
func (s *ProcessingService) UpsertLoanApplication(ctx context.Context, app *lending.LoanApplication) error {
	return s.applications.Save(ctx, app)
}

// GetLoanApplication loads an application by ID
func (s *ProcessingService) GetLoanApplication(ctx context.Context, id uuid.UUID) (*lending.LoanApplication, error) {
	return s.applications.FindByID(ctx, id)
}

// GetLoanApplications lists applications
func (s *ProcessingService) GetLoanApplications(ctx context.Context, filter shared.Filter) ([]lending.LoanApplication, error) {
	return s.applications.FindAll(ctx, filter)
}

// DeleteLoanApplication removes an application
func (s *ProcessingService) DeleteLoanApplication(ctx context.Context, id uuid.UUID) error {
	return s.applications.Delete(ctx, id)
}

// ConsiderLoanApplication records a decision on a new application:
// approved when the decision is positive, rejected otherwise
func (s *ProcessingService) ConsiderLoanApplication(ctx context.Context, app *lending.LoanApplication, decision bool) error {
	if app == nil {
		return shared.ErrInvalidInput
	}
	if err := app.Consider(decision); err != nil {
		return err
	}
	return s.applications.Save(ctx, app)
}

// ApproveLoanApplication approves a new application
func (s *ProcessingService) ApproveLoanApplication(ctx context.Context, app *lending.LoanApplication) error {
	return s.ConsiderLoanApplication(ctx, app, true)
}

// RejectLoanApplication rejects a new application
func (s *ProcessingService) RejectLoanApplication(ctx context.Context, app *lending.LoanApplication) error {
	return s.ConsiderLoanApplication(ctx, app, false)
}

// GetTariff loads a tariff by ID
func (s *ProcessingService) GetTariff(ctx context.Context, id uuid.UUID) (*lending.Tariff, error) {
	return s.tariffs.FindByID(ctx, id)
}

// GetTariffs lists tariffs
func (s *ProcessingService) GetTariffs(ctx context.Context, filter shared.Filter) ([]lending.Tariff, error) {
	return s.tariffs.FindAll(ctx, filter)
}

// UpsertTariff persists a tariff
func (s *ProcessingService) UpsertTariff(ctx context.Context, tariff *lending.Tariff) error {
	if tariff == nil {
		return shared.ErrInvalidInput
	}
	return s.tariffs.Save(ctx, tariff)
}

// DeleteTariff ends the tariff's validity window at the bank's current date
// and removes it from the offering
func (s *ProcessingService) DeleteTariff(ctx context.Context, id uuid.UUID) error {
	tariff, err := s.tariffs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if tariff == nil {
		return shared.ErrNotFound
	}
	now, err := s.GetCurrentDate(ctx)
	if err != nil {
		return err
	}
	tariff.Deactivate(now)
	if err := s.tariffs.Save(ctx, tariff); err != nil {
		return err
	}
	return s.tariffs.Delete(ctx, id)
}
