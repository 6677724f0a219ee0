package httpx

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the admin account, or resets its password when the
// email is already known.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "admin.hash")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		email,
		hash,
	)
	return errors.Wrap(err, "admin.upsert")
}
