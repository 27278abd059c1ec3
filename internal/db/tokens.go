package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// InsertAuthToken stores the hash of a freshly issued one-time token.
func (db *DB) InsertAuthToken(ctx context.Context, tokenHash, userID, purpose string, expiresAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO auth_tokens (token_hash, user_id, purpose, expires_at) VALUES ($1, $2, $3, $4)`,
		tokenHash, userID, purpose, expiresAt)
	if err != nil {
		return apierr.Data("insert auth token", err)
	}
	return nil
}

// ConsumeAuthToken marks a one-time token used and returns its user. The
// guard clause makes consumption atomic: of two concurrent calls with the
// same token, exactly one sees a row.
func (db *DB) ConsumeAuthToken(ctx context.Context, tokenHash, purpose string) (string, error) {
	var userID string
	err := db.pool.QueryRow(ctx,
		`UPDATE auth_tokens SET used_at = now()
		 WHERE token_hash = $1 AND purpose = $2 AND expires_at > now() AND used_at IS NULL
		 RETURNING user_id`,
		tokenHash, purpose).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apierr.Auth("invalid, expired or already used token")
		}
		return "", apierr.Data("consume auth token", err)
	}
	return userID, nil
}

// DeleteExpiredTokens purges tokens past their expiry. Run on a schedule;
// consumption already refuses expired tokens, this just keeps the table small.
func (db *DB) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, apierr.Data("delete expired tokens", err)
	}
	return tag.RowsAffected(), nil
}
