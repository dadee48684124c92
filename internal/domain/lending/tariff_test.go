package lending

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
)

func TestNewTariff(t *testing.T) {
	t.Run("creates an active tariff", func(t *testing.T) {
		tariff, err := NewTariff("Standard", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(1000), decimal.NewFromInt(10000),
			6, 36, 1, CalculationStandard, valueobject.BYR)
		require.NoError(t, err)
		assert.True(t, tariff.IsActive)
		assert.Nil(t, tariff.ValidUntil)
	})

	t.Run("min amount above max amount fails", func(t *testing.T) {
		_, err := NewTariff("Broken", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(10000), decimal.NewFromInt(1000),
			6, 36, 1, CalculationStandard, valueobject.BYR)
		assert.Equal(t, "INVALID_AMOUNT_RANGE", domainCode(t, err))
	})

	t.Run("min term above max term fails", func(t *testing.T) {
		_, err := NewTariff("Broken", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(1000), decimal.NewFromInt(10000),
			36, 6, 1, CalculationStandard, valueobject.BYR)
		assert.Equal(t, "INVALID_TERM_RANGE", domainCode(t, err))
	})

	t.Run("payment frequency outside 1..12 fails", func(t *testing.T) {
		_, err := NewTariff("Broken", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(1000), decimal.NewFromInt(10000),
			6, 36, 13, CalculationStandard, valueobject.BYR)
		assert.Equal(t, "INVALID_PAYMENT_FREQUENCY", domainCode(t, err))
	})

	t.Run("unknown calculation kind fails", func(t *testing.T) {
		_, err := NewTariff("Broken", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(1000), decimal.NewFromInt(10000),
			6, 36, 1, PaymentCalculationKind("BALLOON"), valueobject.BYR)
		assert.Equal(t, "INVALID_CONFIGURATION", domainCode(t, err))
	})

	t.Run("unknown currency fails", func(t *testing.T) {
		_, err := NewTariff("Broken", decimal.RequireFromString("0.15"),
			decimal.NewFromInt(1000), decimal.NewFromInt(10000),
			6, 36, 1, CalculationStandard, valueobject.Currency("XXX"))
		assert.Equal(t, "INVALID_CURRENCY", domainCode(t, err))
	})
}

func TestTariffDeactivate(t *testing.T) {
	tariff := testTariff(t, CalculationStandard)
	at := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	tariff.Deactivate(at)

	assert.False(t, tariff.IsActive)
	require.NotNil(t, tariff.ValidUntil)
	assert.True(t, tariff.ValidUntil.Equal(at))
}

func TestTariffValidate(t *testing.T) {
	tariff := testTariff(t, CalculationAnnuity)

	application := func(t *testing.T, amount int64, term int) *LoanApplication {
		t.Helper()
		app, err := NewLoanApplication(uuid.New(), tariff, decimal.NewFromInt(amount), term, "")
		require.NoError(t, err)
		return app
	}

	t.Run("acceptable application passes", func(t *testing.T) {
		assert.Nil(t, tariff.Validate(application(t, 50000, 12)))
	})

	t.Run("amount out of bounds is keyed to the amount field", func(t *testing.T) {
		verr := tariff.Validate(application(t, 999, 12))
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "amount")
		assert.NotContains(t, verr.Fields, "term")
	})

	t.Run("term out of bounds is keyed to the term field", func(t *testing.T) {
		verr := tariff.Validate(application(t, 50000, 61))
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "term")
	})

	t.Run("multiple failures collect multiple fields", func(t *testing.T) {
		verr := tariff.Validate(application(t, 1, 600))
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "amount")
		assert.Contains(t, verr.Fields, "term")
	})

	t.Run("inactive tariff rejects everything", func(t *testing.T) {
		app := application(t, 50000, 12)
		retired := testTariff(t, CalculationAnnuity)
		retired.Deactivate(time.Now())
		verr := retired.Validate(app)
		require.NotNil(t, verr)
		assert.Contains(t, verr.Fields, "tariff")
	})

	t.Run("validation error renders field messages", func(t *testing.T) {
		verr := shared.NewValidationError()
		verr.AddField("amount", "too small")
		assert.Contains(t, verr.Error(), "amount: too small")
	})
}
