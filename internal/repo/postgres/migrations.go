package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakline/staffdesk/pkg/logger"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		role          TEXT NOT NULL DEFAULT 'staff',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		designation   TEXT NOT NULL DEFAULT '',
		is_verified   BOOLEAN NOT NULL DEFAULT false,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		used_at    TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		seq            BIGSERIAL,
		id             TEXT PRIMARY KEY,
		type           TEXT NOT NULL,
		title          TEXT NOT NULL,
		created_by     TEXT NOT NULL,
		creator_role   TEXT NOT NULL DEFAULT '',
		designation    TEXT NOT NULL DEFAULT '',
		payload        JSONB NOT NULL,
		target         TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		attachment_ref TEXT NOT NULL DEFAULT '',
		signature      TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_target ON requests (target, seq)`,
	`CREATE TABLE IF NOT EXISTS inquiries (
		id          TEXT PRIMARY KEY,
		guest_id    TEXT NOT NULL DEFAULT '',
		guest_name  TEXT NOT NULL,
		guest_email TEXT NOT NULL DEFAULT '',
		subject     TEXT NOT NULL,
		message     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'new',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id          BIGSERIAL PRIMARY KEY,
		entry_date  DATE NOT NULL,
		account     TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		debit       BIGINT NOT NULL DEFAULT 0,
		credit      BIGINT NOT NULL DEFAULT 0,
		currency    TEXT NOT NULL DEFAULT 'USD'
	)`,
}

// Migrate applies the embedded schema statements. Statements are idempotent,
// so startup can run this unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}

	logger.Info("migrations applied", "count", len(migrations))
	return nil
}
