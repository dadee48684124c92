package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add loans table", "add_loans_table"},
		{"Add-Payment-Schedule", "add_payment_schedule"},
		{"ADD_TARIFFS", "add_tariffs"},
		{"add__bank__calendar", "add_bank_calendar"},
		{"Accrual Index 2", "accrual_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	pair, err := CreateMigration(tmpDir, "add payment schedule")
	require.NoError(t, err)

	// version prefix is a sortable timestamp
	assert.Len(t, pair.Version, 14)

	upBase := strings.TrimSuffix(filepath.Base(pair.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(pair.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add payment schedule")

	downContent, err := os.ReadFile(pair.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "rollback")
}

func TestCreateMigrationCreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")

	_, err := CreateMigration(nested, "init schema")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	t.Run("returns one entry per pair", func(t *testing.T) {
		tmpDir := t.TempDir()
		files := []string{
			"000001_init_schema.up.sql",
			"000001_init_schema.down.sql",
			"000002_add_tariffs.up.sql",
			"000002_add_tariffs.down.sql",
		}
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("-- sql"), 0644))
		}

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"000001_init_schema", "000002_add_tariffs"}, migrations)
	})

	t.Run("ignores files that are not migrations", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "000001_init.up.sql"), []byte("-- sql"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("docs"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "archive.up.sql"), 0755))

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, migrations)
	})

	t.Run("missing directory yields empty list", func(t *testing.T) {
		migrations, err := ListMigrations("/nonexistent/migrations")
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})
}
