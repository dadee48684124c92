package lending

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanApplicationStatus(t *testing.T) {
	t.Run("IsValid covers the whole workflow", func(t *testing.T) {
		statuses := []LoanApplicationStatus{
			ApplicationStatusNew,
			ApplicationStatusInitiallyApproved,
			ApplicationStatusUnderRisk,
			ApplicationStatusUnderCommittee,
			ApplicationStatusApproved,
			ApplicationStatusRejected,
			ApplicationStatusContracted,
		}
		for _, s := range statuses {
			assert.True(t, s.IsValid(), "expected %s to be valid", s)
		}
		assert.False(t, LoanApplicationStatus("PENDING").IsValid())
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, ApplicationStatusRejected.IsTerminal())
		assert.True(t, ApplicationStatusContracted.IsTerminal())
		assert.False(t, ApplicationStatusNew.IsTerminal())
		assert.False(t, ApplicationStatusApproved.IsTerminal())
	})
}

func newTestApplication(t *testing.T) *LoanApplication {
	t.Helper()
	tariff := testTariff(t, CalculationAnnuity)
	app, err := NewLoanApplication(uuid.New(), tariff, decimal.NewFromInt(50000), 24, "+375441234567")
	require.NoError(t, err)
	return app
}

func TestLoanApplicationTransitions(t *testing.T) {
	t.Run("starts in New", func(t *testing.T) {
		app := newTestApplication(t)
		assert.Equal(t, ApplicationStatusNew, app.Status)
	})

	t.Run("New to Approved", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Approve())
		assert.Equal(t, ApplicationStatusApproved, app.Status)
	})

	t.Run("New to Rejected is terminal", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Reject())
		assert.Equal(t, ApplicationStatusRejected, app.Status)
		assert.Error(t, app.Approve())
		assert.Error(t, app.Contract(time.Now()))
	})

	t.Run("Approved to Contracted stamps the contracting time", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Approve())

		at := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, app.Contract(at))
		assert.Equal(t, ApplicationStatusContracted, app.Status)
		require.NotNil(t, app.ContractedAt)
		assert.True(t, app.ContractedAt.Equal(at))
	})

	t.Run("cannot contract without approval", func(t *testing.T) {
		app := newTestApplication(t)
		err := app.Contract(time.Now())
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("Contracted is terminal", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Approve())
		require.NoError(t, app.Contract(time.Now()))
		assert.Error(t, app.Approve())
		assert.Error(t, app.Reject())
		assert.Error(t, app.Contract(time.Now()))
	})

	t.Run("Consider approves or rejects", func(t *testing.T) {
		approved := newTestApplication(t)
		require.NoError(t, approved.Consider(true))
		assert.Equal(t, ApplicationStatusApproved, approved.Status)

		rejected := newTestApplication(t)
		require.NoError(t, rejected.Consider(false))
		assert.Equal(t, ApplicationStatusRejected, rejected.Status)
	})
}

func TestScheduleStartDate(t *testing.T) {
	t.Run("New uses creation time", func(t *testing.T) {
		app := newTestApplication(t)
		start, err := app.ScheduleStartDate()
		require.NoError(t, err)
		assert.True(t, start.Equal(app.CreatedAt))
	})

	t.Run("Approved uses creation time", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Approve())
		start, err := app.ScheduleStartDate()
		require.NoError(t, err)
		assert.True(t, start.Equal(app.CreatedAt))
	})

	t.Run("Contracted uses contracting time", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.Approve())
		at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, app.Contract(at))

		start, err := app.ScheduleStartDate()
		require.NoError(t, err)
		assert.True(t, start.Equal(at))
	})

	t.Run("workflow statuses fail", func(t *testing.T) {
		for _, s := range []LoanApplicationStatus{
			ApplicationStatusInitiallyApproved,
			ApplicationStatusUnderRisk,
			ApplicationStatusUnderCommittee,
			ApplicationStatusRejected,
		} {
			app := newTestApplication(t)
			app.Status = s
			_, err := app.ScheduleStartDate()
			assert.Equal(t, "INVALID_STATE", domainCode(t, err), "status %s", s)
		}
	})
}
