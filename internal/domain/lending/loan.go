package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
)

// Loan is a contracted consumer loan: the originating application, the
// amortization schedule and the five typed ledger accounts. A loan is never
// physically removed; closing only flips the flag.
type Loan struct {
	shared.BaseEntity
	CustomerID    uuid.UUID        `json:"customer_id" gorm:"type:uuid;not null;index"`
	ApplicationID uuid.UUID        `json:"application_id" gorm:"type:uuid;not null;index"`
	Application   *LoanApplication `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	ScheduleID    uuid.UUID        `json:"schedule_id" gorm:"type:uuid;not null"`
	Schedule      *PaymentSchedule `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID"`
	IsClosed      bool             `json:"is_closed" gorm:"not null;default:false"`
	ClosedAt      *time.Time       `json:"closed_at"`
	Accounts      []Account        `json:"accounts" gorm:"foreignKey:LoanID"`
}

// NewLoan assembles a loan from its contracted application, schedule and
// freshly opened accounts
func NewLoan(customerID uuid.UUID, application *LoanApplication, schedule *PaymentSchedule, accounts []*Account) (*Loan, error) {
	if application == nil {
		return nil, shared.NewDomainError("INVALID_APPLICATION", "Application is required")
	}
	if schedule == nil {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Payment schedule is required")
	}
	if len(accounts) != len(LoanAccountTypes()) {
		return nil, shared.NewDomainError("INVALID_ACCOUNTS",
			fmt.Sprintf("A loan owns exactly %d accounts, got %d", len(LoanAccountTypes()), len(accounts)))
	}

	loan := &Loan{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		ApplicationID: application.GetID(),
		Application:   application,
		ScheduleID:    schedule.GetID(),
		Schedule:      schedule,
	}
	for _, acc := range accounts {
		acc.LoanID = loan.ID
		loan.Accounts = append(loan.Accounts, *acc)
	}
	return loan, nil
}

// Currency returns the loan's currency, taken from its application
func (l *Loan) Currency() valueobject.Currency {
	if l.Application != nil {
		return l.Application.Currency
	}
	return valueobject.DefaultCurrency
}

// Account returns the loan's account of the given type
func (l *Loan) Account(accountType AccountType) (*Account, error) {
	for i := range l.Accounts {
		if l.Accounts[i].Type == accountType {
			return &l.Accounts[i], nil
		}
	}
	return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND",
		fmt.Sprintf("Loan %s has no %s account", l.ID, accountType))
}

// CanBeClosed reports whether every account balance is exactly zero
func (l *Loan) CanBeClosed() bool {
	for i := range l.Accounts {
		if !l.Accounts[i].Balance.IsZero() {
			return false
		}
	}
	return true
}

// Close closes every account and marks the loan closed. Fails without
// mutating anything when any account still carries a balance.
func (l *Loan) Close(at time.Time) error {
	if l.IsClosed {
		return shared.NewDomainError("INVALID_STATE", "Loan is already closed")
	}
	if !l.CanBeClosed() {
		return shared.NewDomainError("INVALID_STATE", "Loan has accounts with non-zero balance")
	}
	for i := range l.Accounts {
		if err := l.Accounts[i].Close(at); err != nil {
			return err
		}
	}
	l.IsClosed = true
	l.ClosedAt = &at
	l.UpdatedAt = time.Now().UTC()
	return nil
}
