package lending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending/backend/internal/domain/shared"
)

func TestAccrueInterest(t *testing.T) {
	t.Run("sums interest of payments accruing that day", func(t *testing.T) {
		loan := testLoan(t)
		accrualDay := time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)
		morning := accrualDay.Add(9 * time.Hour)
		evening := accrualDay.Add(21 * time.Hour)

		loan.Schedule.Payments = nil
		loan.Schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Principal:  decimal.NewFromInt(10000),
			Interest:   decimal.NewFromInt(1200),
			AccruedOn:  &morning,
		})
		loan.Schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Principal:  decimal.NewFromInt(10000),
			Interest:   decimal.NewFromInt(300),
			AccruedOn:  &evening,
		})

		entry, err := AccrueInterest(loan, accrualDay)
		require.NoError(t, err)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(1500)))
		assert.Equal(t, EntryAccrual, entry.Type)
		assert.Equal(t, SubTypeInterest, entry.SubType)
		assert.Equal(t, loan.Currency(), entry.Currency)
		assert.True(t, entry.BookedAt.Equal(accrualDay))
	})

	t.Run("time of day is ignored in the comparison", func(t *testing.T) {
		loan := testLoan(t)
		accrued := time.Date(2026, time.June, 5, 23, 59, 59, 0, time.UTC)
		loan.Schedule.Payments = nil
		loan.Schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Interest:   decimal.NewFromInt(700),
			AccruedOn:  &accrued,
		})

		entry, err := AccrueInterest(loan, time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(700)))
	})

	t.Run("no matching payments yields a zero entry", func(t *testing.T) {
		loan := testLoan(t)
		entry, err := AccrueInterest(loan, time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, entry.Amount.IsZero())
	})

	t.Run("payments without an accrual date never match", func(t *testing.T) {
		loan := testLoan(t)
		loan.Schedule.Payments = nil
		loan.Schedule.AddPayment(Payment{
			BaseEntity: shared.NewBaseEntity(),
			Interest:   decimal.NewFromInt(500),
		})

		entry, err := AccrueInterest(loan, time.Now())
		require.NoError(t, err)
		assert.True(t, entry.Amount.IsZero())
	})

	t.Run("loan without a schedule fails", func(t *testing.T) {
		loan := testLoan(t)
		loan.Schedule = nil
		_, err := AccrueInterest(loan, time.Now())
		assert.Error(t, err)
	})
}
