// ABOUTME: Refresh token database operations
// ABOUTME: Stores hashed tokens with expiry; rotation deletes the old hash
package db

import (
	"database/sql"
	"time"
)

// RefreshToken is a stored token row. Only the SHA-256 hash of the opaque
// token ever reaches the database.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

func InsertRefreshToken(db *sql.DB, tokenHash, userID string, expiresAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at)
		VALUES (?, ?, ?)
	`, tokenHash, userID, expiresAt.UTC())
	return err
}

func GetRefreshToken(db *sql.DB, tokenHash string) (*RefreshToken, error) {
	token := &RefreshToken{}
	err := db.QueryRow(`
		SELECT token_hash, user_id, expires_at
		FROM refresh_tokens WHERE token_hash = ?
	`, tokenHash).Scan(&token.TokenHash, &token.UserID, &token.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func DeleteRefreshToken(db *sql.DB, tokenHash string) error {
	_, err := db.Exec(`DELETE FROM refresh_tokens WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteExpiredRefreshTokens drops tokens past their expiry. Called
// opportunistically on refresh; there is no background reaper.
func DeleteExpiredRefreshTokens(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
