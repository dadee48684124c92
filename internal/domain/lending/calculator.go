package lending

import (
	"fmt"
	"time"

	"github.com/lending/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ScheduleRoundingPlaces is the number of fractional digits schedules are
// rounded to before they are handed out
const ScheduleRoundingPlaces = 2

var (
	decimalOne    = decimal.NewFromInt(1)
	decimalTwelve = decimal.NewFromInt(12)
	decimalThirty = decimal.NewFromInt(30)
)

// CalculateSchedule computes the payment schedule for a principal under a
// tariff. The start date is optional: without it only the amounts and
// relative ordering are meaningful, dates stay unset.
//
// Fails with a range error when term or principal fall outside the tariff
// bounds, and with an invalid-configuration error for an unknown payment
// calculation kind.
func CalculateSchedule(principal decimal.Decimal, tariff *Tariff, term int, startDate *time.Time) (*PaymentSchedule, error) {
	if tariff == nil {
		return nil, shared.NewDomainError("INVALID_CONFIGURATION", "Tariff is required")
	}
	if !tariff.AcceptsTerm(term) {
		return nil, shared.NewDomainError("TERM_OUT_OF_RANGE",
			fmt.Sprintf("Term %d is not within the range of tariff %q", term, tariff.Name))
	}
	if !tariff.AcceptsAmount(principal) {
		return nil, shared.NewDomainError("AMOUNT_OUT_OF_RANGE",
			fmt.Sprintf("Amount %s is not within the range of tariff %q", principal.String(), tariff.Name))
	}

	switch tariff.CalculationKind {
	case CalculationAnnuity:
		return calculateAnnuitySchedule(tariff, principal, term, startDate), nil
	case CalculationStandard:
		return calculateStandardSchedule(tariff, principal, term, startDate), nil
	default:
		return nil, shared.NewDomainError("INVALID_CONFIGURATION",
			fmt.Sprintf("Unknown payment calculation kind: %s", tariff.CalculationKind))
	}
}

// CalculateScheduleForApplication derives principal, tariff, term and start
// date from a loan application and returns the rounded schedule. New and
// Approved applications count from their creation time, Contracted ones from
// their contracting time; any other status fails.
func CalculateScheduleForApplication(app *LoanApplication) (*PaymentSchedule, error) {
	if app == nil || app.Tariff == nil {
		return nil, shared.NewDomainError("INVALID_CONFIGURATION", "Application with tariff is required")
	}
	start, err := app.ScheduleStartDate()
	if err != nil {
		return nil, err
	}
	schedule, err := CalculateSchedule(app.Amount, app.Tariff, app.Term, &start)
	if err != nil {
		return nil, err
	}
	schedule.Round(ScheduleRoundingPlaces)
	return schedule, nil
}

// periodicRate returns the per-installment interest rate:
// annual rate scaled by the months between installments
func periodicRate(t *Tariff) decimal.Decimal {
	return t.InterestRate.Mul(decimal.NewFromInt(int64(t.PaymentFrequency))).Div(decimalTwelve)
}

func calculateAnnuitySchedule(tariff *Tariff, principal decimal.Decimal, term int, startDate *time.Time) *PaymentSchedule {
	rate := periodicRate(tariff)
	c := powDecimal(decimalOne.Add(rate), term)
	annuityCoeff := rate.Mul(c).Div(c.Sub(decimalOne))
	levelPayment := principal.Mul(annuityCoeff)

	schedule := NewPaymentSchedule(tariff.Currency)
	remaining := principal
	if startDate != nil {
		first := calculateFirstPayment(principal, tariff, *startDate)
		schedule.AddPayment(first)
		startDate = first.AccruedOn
	}
	for i := 0; i < term; i++ {
		interest := remaining.Mul(rate)
		principalPortion := levelPayment.Sub(interest)
		schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Principal:  principalPortion,
			Interest:   interest,
			AccruedOn:  paymentDate(startDate, i),
			DueBefore:  paymentDate(startDate, i+1),
		})
		remaining = remaining.Sub(principalPortion)
	}
	return schedule
}

func calculateStandardSchedule(tariff *Tariff, principal decimal.Decimal, term int, startDate *time.Time) *PaymentSchedule {
	rate := periodicRate(tariff)
	principalPortion := principal.Div(decimal.NewFromInt(int64(term)))

	schedule := NewPaymentSchedule(tariff.Currency)
	remaining := principal
	for i := 0; i < term; i++ {
		interest := remaining.Mul(rate)
		schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Principal:  principalPortion,
			Interest:   interest,
			AccruedOn:  paymentDate(startDate, i),
			DueBefore:  paymentDate(startDate, i+1),
		})
		remaining = remaining.Sub(principalPortion)
	}
	return schedule
}

// calculateFirstPayment builds the interest-only first installment used by
// annuity schedules with a known start date. The start day is included in the
// accrual and days in a month are floored at 30, so a loan taken on the 31st
// accrues no first-period interest. The accrual date is pinned to the last
// banking day of the start month (day 30 when the month has at least 30 days)
// at the final instant of that day.
func calculateFirstPayment(principal decimal.Decimal, tariff *Tariff, startDate time.Time) Payment {
	monthlyRate := tariff.InterestRate.Div(decimalTwelve)
	accrualDays := decimal.NewFromInt(int64(31 - startDate.Day()))
	// divide last so the common whole-percent cases stay exact
	interest := principal.Mul(monthlyRate).Mul(accrualDays).Div(decimalThirty)

	year, month, _ := startDate.Date()
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, startDate.Location()).Day()
	accrualDay := daysInMonth
	if daysInMonth >= 30 {
		accrualDay = 30
	}
	accruedOn := time.Date(year, month, accrualDay, 0, 0, 0, 0, startDate.Location()).
		AddDate(0, 0, 1).Add(-time.Nanosecond)
	dueBefore := accruedOn.AddDate(0, tariff.PaymentFrequency, 0)

	return Payment{
		BaseEntity: shared.NewBaseEntity(),
		Principal:  decimal.Zero,
		Interest:   interest,
		AccruedOn:  &accruedOn,
		DueBefore:  &dueBefore,
	}
}

// paymentDate shifts the start date forward by i months and moves any date
// landing on a weekend forward to the next business day
func paymentDate(startDate *time.Time, i int) *time.Time {
	if startDate == nil {
		return nil
	}
	date := startDate.AddDate(0, i, 0)
	switch date.Weekday() {
	case time.Saturday:
		date = date.AddDate(0, 0, 2)
	case time.Sunday:
		date = date.AddDate(0, 0, 1)
	}
	return &date
}

// powDecimal raises base to a non-negative integer power without leaving
// decimal arithmetic
func powDecimal(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimalOne
	for i := 0; i < exp; i++ {
		result = result.Mul(base)
	}
	return result
}
