package lending

import (
	"time"

	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
)

// AccrueInterest computes the interest a loan accrues on the given calendar
// day: the sum of the interest portions of every schedule payment accruing on
// that day (date-only comparison). The result is an Accrual/Interest entry in
// the loan's currency stamped with that date. Zero matching payments yield a
// zero-amount entry, not an error; callers decide whether to post it.
func AccrueInterest(loan *Loan, date time.Time) (*Entry, error) {
	if loan == nil || loan.Schedule == nil {
		return nil, shared.NewDomainError("INVALID_CONFIGURATION", "Loan with schedule is required")
	}
	amount := loan.Schedule.InterestAccruedOn(date)
	money, err := valueobject.NewMoney(amount, loan.Currency())
	if err != nil {
		return nil, err
	}
	return NewEntry(money, EntryAccrual, SubTypeInterest, date)
}
