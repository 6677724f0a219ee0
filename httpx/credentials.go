package httpx

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrCannotRefresh  = errors.New("could not refresh")
)

type credentialsVerifier struct {
	db         *sql.DB
	refreshTTL time.Duration
}

// CredentialsVerifier checks admin emails and passwords against the user
// table and keeps refresh token ids in the token table.
func CredentialsVerifier(db *sql.DB, refreshTTL time.Duration) oauth.CredentialsVerifier {
	return &credentialsVerifier{db, refreshTTL}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	var hash []byte
	err := cs.db.
		QueryRowContext(r.Context(), "SELECT password_hash FROM user WHERE username=?", username).
		Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return errors.Wrap(err, "credentials.lookup")
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	_, err := cs.db.Exec(
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(cs.refreshTTL),
	)
	return errors.Wrap(err, "credentials.store_token")
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	var expiration time.Time
	var ok bool

	cs.db.
		QueryRow(`
			DELETE FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?
			RETURNING expiration, 1`,
			credential,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration, &ok)
	if !ok || expiration.Before(time.Now()) {
		return ErrCannotRefresh
	}
	return nil
}

func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin", "email": credential}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"email": credential}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}

func NewBearerServer(db *sql.DB, secret string, ttl, refreshTTL time.Duration) *oauth.BearerServer {
	return oauth.NewBearerServer(secret, ttl, CredentialsVerifier(db, refreshTTL), nil)
}
