package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakline/staffdesk/internal/domain"
)

type LedgerRepo interface {
	Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error)
}

type LedgerRepoImpl struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepoImpl { return &LedgerRepoImpl{pool: pool} }

func (r *LedgerRepoImpl) Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error) {
	const q = `
SELECT id, entry_date, account, description, debit, credit, currency
FROM ledger_entries
ORDER BY entry_date, id`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &domain.LedgerSnapshot{
		Entries: make([]domain.LedgerEntry, 0),
		AsOf:    time.Now().UTC(),
	}
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.EntryDate, &e.Account, &e.Description, &e.Debit, &e.Credit, &e.Currency); err != nil {
			return nil, err
		}
		snap.Entries = append(snap.Entries, e)
		snap.Totals.Debit += e.Debit
		snap.Totals.Credit += e.Credit
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	snap.Totals.Balance = snap.Totals.Credit - snap.Totals.Debit

	return snap, nil
}

var _ LedgerRepo = (*LedgerRepoImpl)(nil)
