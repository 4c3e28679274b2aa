package database

import (
	"testing"
	"testing/fstest"

	"billing-backend/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesOrderAndFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_payments.sql":    {Data: []byte("SELECT 1")},
		"sql/001_schema.sql":      {Data: []byte("SELECT 1")},
		"sql/010_indexes.sql":     {Data: []byte("SELECT 1")},
		"sql/999_reset_all.sql":   {Data: []byte("DROP SCHEMA public")},
		"sql/README.md":           {Data: []byte("docs")},
		"sql/archive/000_old.sql": {Data: []byte("SELECT 1")},
	}

	files, err := migrationFiles(fsys, "sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_schema.sql", "002_payments.sql", "010_indexes.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(migrations.FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_initial_schema.sql", files[0])
}
