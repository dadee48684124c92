package lending

import (
	"fmt"
	"time"

	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentCalculationKind selects the amortization algorithm for a tariff
type PaymentCalculationKind string

const (
	CalculationAnnuity  PaymentCalculationKind = "ANNUITY"  // equal installments
	CalculationStandard PaymentCalculationKind = "STANDARD" // equal principal portions
)

// IsValid checks if the kind is a known calculation kind
func (k PaymentCalculationKind) IsValid() bool {
	return k == CalculationAnnuity || k == CalculationStandard
}

// String returns the string representation of the kind
func (k PaymentCalculationKind) String() string {
	return string(k)
}

// Tariff is a loan product: the rate, the bounds a loan must fall within and
// the acceptance rule applied to incoming applications.
type Tariff struct {
	shared.BaseEntity
	Name             string                 `json:"name" gorm:"not null"`
	InterestRate     decimal.Decimal        `json:"interest_rate" gorm:"type:decimal(9,6);not null"` // annual, fractional
	MinAmount        decimal.Decimal        `json:"min_amount" gorm:"type:decimal(19,4);not null"`
	MaxAmount        decimal.Decimal        `json:"max_amount" gorm:"type:decimal(19,4);not null"`
	MinTerm          int                    `json:"min_term" gorm:"not null"` // months
	MaxTerm          int                    `json:"max_term" gorm:"not null"` // months
	PaymentFrequency int                    `json:"payment_frequency" gorm:"not null"` // months between installments
	CalculationKind  PaymentCalculationKind `json:"calculation_kind" gorm:"type:varchar(16);not null"`
	MinAge           int                    `json:"min_age"`
	MaxAge           *int                   `json:"max_age"`
	InitialFee       decimal.Decimal        `json:"initial_fee" gorm:"type:decimal(19,4)"`
	GuarantorNeeded  bool                   `json:"guarantor_needed"`
	Currency         valueobject.Currency   `json:"currency" gorm:"type:varchar(3);not null"`
	IsActive         bool                   `json:"is_active" gorm:"not null;default:true"`
	ValidFrom        time.Time              `json:"valid_from"`
	ValidUntil       *time.Time             `json:"valid_until"`
}

// NewTariff creates a tariff, enforcing the bound invariants
func NewTariff(
	name string,
	interestRate decimal.Decimal,
	minAmount, maxAmount decimal.Decimal,
	minTerm, maxTerm int,
	paymentFrequency int,
	kind PaymentCalculationKind,
	currency valueobject.Currency,
) (*Tariff, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TARIFF_NAME", "Tariff name cannot be empty")
	}
	if interestRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INTEREST_RATE", "Interest rate cannot be negative")
	}
	if minAmount.GreaterThan(maxAmount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT_RANGE", "Min amount cannot exceed max amount")
	}
	if minTerm > maxTerm {
		return nil, shared.NewDomainError("INVALID_TERM_RANGE", "Min term cannot exceed max term")
	}
	if minTerm <= 0 {
		return nil, shared.NewDomainError("INVALID_TERM_RANGE", "Min term must be positive")
	}
	if paymentFrequency < 1 || paymentFrequency > 12 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_FREQUENCY", "Payment frequency must be between 1 and 12 months")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONFIGURATION", fmt.Sprintf("Unknown payment calculation kind: %s", kind))
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unknown currency: %s", currency))
	}

	return &Tariff{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             name,
		InterestRate:     interestRate,
		MinAmount:        minAmount,
		MaxAmount:        maxAmount,
		MinTerm:          minTerm,
		MaxTerm:          maxTerm,
		PaymentFrequency: paymentFrequency,
		CalculationKind:  kind,
		Currency:         currency,
		IsActive:         true,
		ValidFrom:        time.Now().UTC(),
	}, nil
}

// AcceptsAmount reports whether the amount falls within the tariff bounds
func (t *Tariff) AcceptsAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(t.MinAmount) && amount.LessThanOrEqual(t.MaxAmount)
}

// AcceptsTerm reports whether the term falls within the tariff bounds
func (t *Tariff) AcceptsTerm(term int) bool {
	return term >= t.MinTerm && term <= t.MaxTerm
}

// Deactivate ends the tariff's validity window
func (t *Tariff) Deactivate(at time.Time) {
	t.IsActive = false
	t.ValidUntil = &at
	t.UpdatedAt = time.Now().UTC()
}

// Validate applies the tariff's acceptance rule to an application and returns
// a field-keyed validation error, or nil when the application is acceptable
func (t *Tariff) Validate(app *LoanApplication) *shared.ValidationError {
	verr := shared.NewValidationError()
	if !t.AcceptsAmount(app.Amount) {
		verr.AddField("amount", fmt.Sprintf("Amount must be between %s and %s for tariff %q",
			t.MinAmount.String(), t.MaxAmount.String(), t.Name))
	}
	if !t.AcceptsTerm(app.Term) {
		verr.AddField("term", fmt.Sprintf("Term must be between %d and %d months for tariff %q",
			t.MinTerm, t.MaxTerm, t.Name))
	}
	if app.Currency != t.Currency {
		verr.AddField("currency", fmt.Sprintf("Tariff %q is offered in %s only", t.Name, t.Currency))
	}
	if !t.IsActive {
		verr.AddField("tariff", fmt.Sprintf("Tariff %q is no longer offered", t.Name))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
