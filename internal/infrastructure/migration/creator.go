package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const upHeader = `-- Migration: %s
-- Created: %s

`

const downHeader = `-- Migration: %s (rollback)
-- Created: %s

`

// MigrationPair is the up/down file pair of one schema migration
type MigrationPair struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down migration pair into migrationsDir.
// The version prefix is the creation timestamp so files sort in apply order.
func CreateMigration(migrationsDir, name string) (*MigrationPair, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, sanitizeName(name))

	pair := &MigrationPair{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(migrationsDir, base+".up.sql"),
		DownPath: filepath.Join(migrationsDir, base+".down.sql"),
	}

	created := now.Format(time.RFC3339)
	if err := os.WriteFile(pair.UpPath, []byte(fmt.Sprintf(upHeader, name, created)), 0644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(pair.DownPath, []byte(fmt.Sprintf(downHeader, name, created)), 0644); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return pair, nil
}

// sanitizeName lowercases the name and collapses everything that is not
// alphanumeric into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + 'a' - 'A')
		case c == ' ' || c == '-' || c == '_':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of migration pairs in a directory.
// A missing directory yields an empty list.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}
