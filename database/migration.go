package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/pkg/errors"
)

//go:embed migrations
var schema embed.FS

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "migrations.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "migrations.driver")
	}

	return migrate.NewWithInstance("iofs", src, "sqlite3", dst)
}

// migrateDB brings the schema (users, refresh tokens and the sqlite
// document store tables) to the latest version.
func migrateDB(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrations.up")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "migrations.version")
	}
	if dirty {
		return errors.Errorf("migrations: schema version %d is dirty", version)
	}
	log.Debugf("database schema at version %d", version)
	return nil
}
