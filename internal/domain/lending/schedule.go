package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Payment is one installment of a payment schedule
type Payment struct {
	shared.BaseEntity
	ScheduleID       uuid.UUID       `json:"schedule_id" gorm:"type:uuid;index"`
	Sequence         int             `json:"sequence" gorm:"not null"`
	Principal        decimal.Decimal `json:"principal" gorm:"type:decimal(19,4);not null"`
	Interest         decimal.Decimal `json:"interest" gorm:"type:decimal(19,4);not null"`
	OverduePrincipal decimal.Decimal `json:"overdue_principal" gorm:"type:decimal(19,4)"`
	OverdueInterest  decimal.Decimal `json:"overdue_interest" gorm:"type:decimal(19,4)"`
	AccruedOn        *time.Time      `json:"accrued_on"`
	DueBefore        *time.Time      `json:"due_before"`
	IsPaid           bool            `json:"is_paid"`
}

// Total returns the full installment amount including overdue portions
func (p *Payment) Total() decimal.Decimal {
	return p.Principal.Add(p.Interest).Add(p.OverduePrincipal).Add(p.OverdueInterest)
}

// IsAccruedOn reports whether the payment accrues on the given calendar day
// (date-only comparison, time-of-day ignored)
func (p *Payment) IsAccruedOn(date time.Time) bool {
	if p.AccruedOn == nil {
		return false
	}
	ay, am, ad := p.AccruedOn.Date()
	dy, dm, dd := date.Date()
	return ay == dy && am == dm && ad == dd
}

// PaymentSchedule is the ordered sequence of installments for one loan.
// Insertion order is chronological order.
type PaymentSchedule struct {
	shared.BaseEntity
	Currency valueobject.Currency `json:"currency" gorm:"type:varchar(3);not null"`
	Payments []Payment            `json:"payments" gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE"`
}

// NewPaymentSchedule creates an empty schedule in the given currency
func NewPaymentSchedule(currency valueobject.Currency) *PaymentSchedule {
	return &PaymentSchedule{
		BaseEntity: shared.NewBaseEntity(),
		Currency:   currency,
		Payments:   make([]Payment, 0),
	}
}

// AddPayment appends a payment, preserving insertion order
func (s *PaymentSchedule) AddPayment(p Payment) {
	p.ScheduleID = s.ID
	p.Sequence = len(s.Payments)
	s.Payments = append(s.Payments, p)
}

// Round rounds every amount field of every payment to the given number of
// fractional digits, half away from zero. Rounding an already-rounded
// schedule is a no-op.
func (s *PaymentSchedule) Round(places int32) {
	for i := range s.Payments {
		p := &s.Payments[i]
		p.Principal = p.Principal.Round(places)
		p.Interest = p.Interest.Round(places)
		p.OverduePrincipal = p.OverduePrincipal.Round(places)
		p.OverdueInterest = p.OverdueInterest.Round(places)
	}
}

// TotalPrincipal returns the sum of all principal portions
func (s *PaymentSchedule) TotalPrincipal() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Payments {
		total = total.Add(s.Payments[i].Principal)
	}
	return total
}

// TotalInterest returns the sum of all interest portions
func (s *PaymentSchedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Payments {
		total = total.Add(s.Payments[i].Interest)
	}
	return total
}

// InterestAccruedOn sums the interest portions of every payment accruing on
// the given calendar day
func (s *PaymentSchedule) InterestAccruedOn(date time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range s.Payments {
		if s.Payments[i].IsAccruedOn(date) {
			total = total.Add(s.Payments[i].Interest)
		}
	}
	return total
}
