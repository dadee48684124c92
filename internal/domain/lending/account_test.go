package lending

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lending/backend/internal/domain/shared/valueobject"
)

func mustEntry(t *testing.T, amount int64, currency valueobject.Currency, entryType EntryType, subType EntrySubType) *Entry {
	t.Helper()
	money := valueobject.MustNewMoney(decimal.NewFromInt(amount), currency)
	entry, err := NewEntry(money, entryType, subType, time.Now().UTC())
	require.NoError(t, err)
	return entry
}

func TestNewEntry(t *testing.T) {
	t.Run("rejects unknown entry type", func(t *testing.T) {
		money := valueobject.MustNewMoney(decimal.NewFromInt(10), valueobject.BYR)
		_, err := NewEntry(money, EntryType("REVERSAL"), SubTypeInterest, time.Now())
		assert.Equal(t, "INVALID_ENTRY_TYPE", domainCode(t, err))
	})

	t.Run("rejects unknown entry subtype", func(t *testing.T) {
		money := valueobject.MustNewMoney(decimal.NewFromInt(10), valueobject.BYR)
		_, err := NewEntry(money, EntryPayment, EntrySubType("FEES"), time.Now())
		assert.Equal(t, "INVALID_ENTRY_SUBTYPE", domainCode(t, err))
	})
}

func TestEntryOpposite(t *testing.T) {
	entry := mustEntry(t, 300, valueobject.BYR, EntryPayment, SubTypeInterest)
	opposite := entry.Opposite()

	assert.True(t, opposite.Amount.Equal(entry.Amount.Neg()))
	assert.Equal(t, entry.Currency, opposite.Currency)
	assert.Equal(t, entry.Type, opposite.Type)
	assert.Equal(t, entry.SubType, opposite.SubType)
	assert.True(t, opposite.BookedAt.Equal(entry.BookedAt))
	assert.NotEqual(t, entry.ID, opposite.ID)

	t.Run("pair sums to zero", func(t *testing.T) {
		assert.True(t, entry.Amount.Add(opposite.Amount).IsZero())
	})
}

func TestAccountAddEntry(t *testing.T) {
	newAccount := func(t *testing.T) *Account {
		t.Helper()
		acc, err := NewAccount(valueobject.BYR, AccountInterest, time.Now().UTC())
		require.NoError(t, err)
		return acc
	}

	t.Run("balance is the signed sum of entries", func(t *testing.T) {
		acc := newAccount(t)
		require.NoError(t, acc.AddEntry(mustEntry(t, 500, valueobject.BYR, EntryAccrual, SubTypeInterest)))
		require.NoError(t, acc.AddEntry(mustEntry(t, -200, valueobject.BYR, EntryPayment, SubTypeInterest)))

		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(300)))
		assert.Len(t, acc.Entries, 2)
	})

	t.Run("currency mismatch leaves the balance unchanged", func(t *testing.T) {
		acc := newAccount(t)
		require.NoError(t, acc.AddEntry(mustEntry(t, 500, valueobject.BYR, EntryAccrual, SubTypeInterest)))

		err := acc.AddEntry(mustEntry(t, 100, valueobject.USD, EntryPayment, SubTypeInterest))
		assert.Equal(t, "CURRENCY_MISMATCH", domainCode(t, err))
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(500)))
		assert.Len(t, acc.Entries, 1)
	})

	t.Run("nil entry is rejected", func(t *testing.T) {
		acc := newAccount(t)
		assert.Error(t, acc.AddEntry(nil))
	})

	t.Run("entries are stamped with the account id", func(t *testing.T) {
		acc := newAccount(t)
		entry := mustEntry(t, 10, valueobject.BYR, EntryAccrual, SubTypeInterest)
		require.NoError(t, acc.AddEntry(entry))
		assert.Equal(t, acc.ID, acc.Entries[0].AccountID)
	})
}

func TestAccountClose(t *testing.T) {
	t.Run("closes with timestamp", func(t *testing.T) {
		acc, err := NewAccount(valueobject.BYR, AccountGeneralDebt, time.Now().UTC())
		require.NoError(t, err)

		at := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)
		require.NoError(t, acc.Close(at))
		assert.True(t, acc.IsClosed)
		require.NotNil(t, acc.ClosedAt)
		assert.True(t, acc.ClosedAt.Equal(at))
	})

	t.Run("double close fails", func(t *testing.T) {
		acc, err := NewAccount(valueobject.BYR, AccountGeneralDebt, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, acc.Close(time.Now()))

		err = acc.Close(time.Now())
		assert.Equal(t, "ACCOUNT_ALREADY_CLOSED", domainCode(t, err))
	})

	t.Run("close does not require a zero balance at the ledger layer", func(t *testing.T) {
		acc, err := NewAccount(valueobject.BYR, AccountGeneralDebt, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, acc.AddEntry(mustEntry(t, 100, valueobject.BYR, EntryTransfer, SubTypeGeneralDebt)))
		assert.NoError(t, acc.Close(time.Now()))
	})
}

func testLoan(t *testing.T) *Loan {
	t.Helper()
	tariff := testTariff(t, CalculationStandard)
	app, err := NewLoanApplication(uuid.New(), tariff, decimal.NewFromInt(120000), 12, "")
	require.NoError(t, err)
	require.NoError(t, app.Approve())
	require.NoError(t, app.Contract(time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC)))

	schedule, err := CalculateScheduleForApplication(app)
	require.NoError(t, err)

	accounts := make([]*Account, 0, len(LoanAccountTypes()))
	for _, at := range LoanAccountTypes() {
		acc, err := NewAccount(tariff.Currency, at, time.Now().UTC())
		require.NoError(t, err)
		accounts = append(accounts, acc)
	}

	loan, err := NewLoan(app.CustomerID, app, schedule, accounts)
	require.NoError(t, err)
	return loan
}

func TestNewLoan(t *testing.T) {
	t.Run("owns exactly five accounts", func(t *testing.T) {
		loan := testLoan(t)
		assert.Len(t, loan.Accounts, 5)
		for _, at := range LoanAccountTypes() {
			acc, err := loan.Account(at)
			require.NoError(t, err)
			assert.Equal(t, loan.ID, acc.LoanID)
		}
	})

	t.Run("rejects a wrong account count", func(t *testing.T) {
		tariff := testTariff(t, CalculationStandard)
		app, err := NewLoanApplication(uuid.New(), tariff, decimal.NewFromInt(5000), 12, "")
		require.NoError(t, err)
		schedule, err := CalculateScheduleForApplication(app)
		require.NoError(t, err)

		acc, err := NewAccount(tariff.Currency, AccountInterest, time.Now().UTC())
		require.NoError(t, err)
		_, err = NewLoan(uuid.New(), app, schedule, []*Account{acc})
		assert.Error(t, err)
	})
}

func TestLoanClose(t *testing.T) {
	t.Run("cannot close with a non-zero balance", func(t *testing.T) {
		loan := testLoan(t)
		debt, err := loan.Account(AccountGeneralDebt)
		require.NoError(t, err)
		require.NoError(t, debt.AddEntry(mustEntry(t, 120000, valueobject.BYR, EntryTransfer, SubTypeGeneralDebt)))

		assert.False(t, loan.CanBeClosed())
		err = loan.Close(time.Now())
		assert.Error(t, err)
		assert.False(t, loan.IsClosed)
		for _, acc := range loan.Accounts {
			assert.False(t, acc.IsClosed)
		}
	})

	t.Run("closes when every balance is zero", func(t *testing.T) {
		loan := testLoan(t)
		assert.True(t, loan.CanBeClosed())

		at := time.Now().UTC()
		require.NoError(t, loan.Close(at))
		assert.True(t, loan.IsClosed)
		for _, acc := range loan.Accounts {
			assert.True(t, acc.IsClosed)
		}
	})
}
