package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := Open(path)
	require.NoError(t, err)

	for _, table := range []string{"user", "token", "catalog", "survey", "connection_test"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
	require.NoError(t, db.Close())

	// opening an up-to-date database is not an error
	db, err = Open(path)
	require.NoError(t, err)
	db.Close()
}
