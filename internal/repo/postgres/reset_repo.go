package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetRepo manages password reset tokens. Tokens are stored hashed; issuing
// a new token for a user supersedes any earlier active one (last-write-wins),
// and consumption is atomic single-use.
type ResetRepo interface {
	Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// Consume marks a token used if valid, and returns the userID (0 if not
	// found, already used, or expired).
	Consume(ctx context.Context, tokenHash string) (userID int64, err error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type ResetRepoImpl struct{ pool *pgxpool.Pool }

func NewResetRepo(pool *pgxpool.Pool) *ResetRepoImpl { return &ResetRepoImpl{pool: pool} }

func (r *ResetRepoImpl) Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Supersede any earlier active token for this user.
	if _, err := tx.Exec(ctx, `
UPDATE password_reset_tokens
SET used_at = now()
WHERE user_id = $1 AND used_at IS NULL
`, userID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
VALUES ($1, $2, $3)
`, userID, tokenHash, expiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ResetRepoImpl) Consume(ctx context.Context, tokenHash string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var userID int64
	// Mark-used *and* return user id atomically, only if not used and not expired.
	err := r.pool.QueryRow(ctx, `
UPDATE password_reset_tokens
SET used_at = now()
WHERE token_hash = $1
  AND used_at IS NULL
  AND expires_at > now()
RETURNING user_id
`, tokenHash).Scan(&userID)

	if err == pgx.ErrNoRows {
		return 0, nil // invalid, used or expired
	}
	return userID, err
}

func (r *ResetRepoImpl) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
DELETE FROM password_reset_tokens
WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
   OR (used_at IS NULL AND expires_at < now() - interval '30 days')
`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ ResetRepo = (*ResetRepoImpl)(nil)
