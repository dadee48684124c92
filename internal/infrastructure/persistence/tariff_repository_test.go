package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lending/backend/internal/domain/shared"
)

// newMockTariffRepository creates a GormTariffRepository with a mocked SQL
// connection and no cache
func newMockTariffRepository(t *testing.T) (*GormTariffRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTariffRepository(gormDB, nil, time.Minute), mock, mockDB
}

func tariffRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "interest_rate", "min_amount", "max_amount",
		"min_term", "max_term", "payment_frequency", "calculation_kind",
		"currency", "is_active",
	}).AddRow(
		id, "Consumer 12%", decimal.RequireFromString("0.12"),
		decimal.NewFromInt(1000), decimal.NewFromInt(500000),
		3, 60, 1, "STANDARD", "BYR", true,
	)
}

func TestGormTariffRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("finds existing tariff", func(t *testing.T) {
		repo, mock, mockDB := newMockTariffRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "tariffs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(tariffRows(id))

		tariff, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, tariff)
		assert.Equal(t, "Consumer 12%", tariff.Name)
		assert.True(t, tariff.InterestRate.Equal(decimal.RequireFromString("0.12")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing tariff", func(t *testing.T) {
		repo, mock, mockDB := newMockTariffRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "tariffs"`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tariff, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, tariff)
	})
}

func TestGormTariffRepository_FindActive(t *testing.T) {
	repo, mock, mockDB := newMockTariffRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "tariffs" WHERE is_active = \$1 ORDER BY name asc`).
		WithArgs(true).
		WillReturnRows(tariffRows(uuid.New()))

	tariffs, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, tariffs, 1)
	assert.True(t, tariffs[0].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTariffRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes existing tariff", func(t *testing.T) {
		repo, mock, mockDB := newMockTariffRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "tariffs" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing tariff reports not found", func(t *testing.T) {
		repo, mock, mockDB := newMockTariffRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "tariffs" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
