package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LoanApplicationStatus represents the status of a loan application
type LoanApplicationStatus string

const (
	ApplicationStatusNew               LoanApplicationStatus = "NEW"
	ApplicationStatusInitiallyApproved LoanApplicationStatus = "INITIALLY_APPROVED"
	ApplicationStatusUnderRisk         LoanApplicationStatus = "UNDER_RISK_CONSIDERATION"
	ApplicationStatusUnderCommittee    LoanApplicationStatus = "UNDER_COMMITTEE_CONSIDERATION"
	ApplicationStatusApproved          LoanApplicationStatus = "APPROVED"
	ApplicationStatusRejected          LoanApplicationStatus = "REJECTED"
	ApplicationStatusContracted        LoanApplicationStatus = "CONTRACTED"
)

// IsValid checks if the status is a valid LoanApplicationStatus
func (s LoanApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusNew, ApplicationStatusInitiallyApproved, ApplicationStatusUnderRisk,
		ApplicationStatusUnderCommittee, ApplicationStatusApproved, ApplicationStatusRejected,
		ApplicationStatusContracted:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s LoanApplicationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s LoanApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusContracted
}

// LoanApplication is a customer's request for a loan under a tariff.
// Status is mutated only through the transition methods; the richer workflow
// states (initially approved, risk, committee) are valid values awaiting a
// future workflow extension and are not driven by this core.
type LoanApplication struct {
	shared.BaseEntity
	CustomerID   uuid.UUID             `json:"customer_id" gorm:"type:uuid;index"`
	Amount       decimal.Decimal       `json:"amount" gorm:"type:decimal(19,4);not null"`
	Currency     valueobject.Currency  `json:"currency" gorm:"type:varchar(3);not null"`
	Term         int                   `json:"term" gorm:"not null"` // months
	TariffID     uuid.UUID             `json:"tariff_id" gorm:"type:uuid;not null;index"`
	Tariff       *Tariff               `json:"tariff,omitempty" gorm:"foreignKey:TariffID"`
	CellPhone    string                `json:"cell_phone"`
	Status       LoanApplicationStatus `json:"status" gorm:"type:varchar(32);not null"`
	ContractedAt *time.Time            `json:"contracted_at"`
}

// NewLoanApplication creates an application in the New status
func NewLoanApplication(
	customerID uuid.UUID,
	tariff *Tariff,
	amount decimal.Decimal,
	term int,
	cellPhone string,
) (*LoanApplication, error) {
	if tariff == nil {
		return nil, shared.NewDomainError("INVALID_TARIFF", "Tariff is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Loan amount must be positive")
	}
	if term <= 0 {
		return nil, shared.NewDomainError("INVALID_TERM", "Term must be positive")
	}

	return &LoanApplication{
		BaseEntity: shared.NewBaseEntity(),
		CustomerID: customerID,
		Amount:     amount,
		Currency:   tariff.Currency,
		Term:       term,
		TariffID:   tariff.GetID(),
		Tariff:     tariff,
		CellPhone:  cellPhone,
		Status:     ApplicationStatusNew,
	}, nil
}

// Approve transitions the application from New to Approved
func (a *LoanApplication) Approve() error {
	if a.Status != ApplicationStatusNew {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve application in %s status", a.Status))
	}
	a.Status = ApplicationStatusApproved
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Reject transitions the application from New to Rejected
func (a *LoanApplication) Reject() error {
	if a.Status != ApplicationStatusNew {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reject application in %s status", a.Status))
	}
	a.Status = ApplicationStatusRejected
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Consider records a decision: approve when true, reject otherwise
func (a *LoanApplication) Consider(decision bool) error {
	if decision {
		return a.Approve()
	}
	return a.Reject()
}

// Contract transitions the application from Approved to Contracted,
// stamping the contracting time. Terminal.
func (a *LoanApplication) Contract(at time.Time) error {
	if a.Status != ApplicationStatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot contract application in %s status", a.Status))
	}
	a.Status = ApplicationStatusContracted
	a.ContractedAt = &at
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ScheduleStartDate returns the date schedule calculation counts from:
// creation time for New/Approved, contracting time for Contracted.
// Any other status carries no determinable start date.
func (a *LoanApplication) ScheduleStartDate() (time.Time, error) {
	switch a.Status {
	case ApplicationStatusNew, ApplicationStatusApproved:
		return a.CreatedAt, nil
	case ApplicationStatusContracted:
		if a.ContractedAt == nil {
			return time.Time{}, shared.NewDomainError("INVALID_STATE",
				"Contracted application is missing its contracting time")
		}
		return *a.ContractedAt, nil
	default:
		return time.Time{}, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Schedule should not be calculated for application in %s status", a.Status))
	}
}
