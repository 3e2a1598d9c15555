package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakline/staffdesk/internal/domain"
)

type RequestsRepo interface {
	Create(ctx context.Context, item *domain.RequestItem) (*domain.RequestItem, error)
	List(ctx context.Context) ([]domain.RequestItem, error)
	ListByTarget(ctx context.Context, target string) ([]domain.RequestItem, error)
}

type RequestsRepoImpl struct{ pool *pgxpool.Pool }

func NewRequestsRepo(pool *pgxpool.Pool) *RequestsRepoImpl { return &RequestsRepoImpl{pool: pool} }

const requestCols = `id, type, title, created_by, creator_role, designation, payload, target, status, attachment_ref, signature, created_at`

func (r *RequestsRepoImpl) Create(ctx context.Context, item *domain.RequestItem) (*domain.RequestItem, error) {
	const q = `
INSERT INTO requests (id, type, title, created_by, creator_role, designation, payload, target, status, attachment_ref, signature)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING ` + requestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stored domain.RequestItem
	if err := r.pool.QueryRow(ctx, q,
		item.ID, item.Type, item.Title, item.CreatedBy, item.CreatorRole, item.Designation,
		item.Payload, item.Target, item.Status, item.AttachmentRef, item.Signature,
	).Scan(
		&stored.ID, &stored.Type, &stored.Title, &stored.CreatedBy, &stored.CreatorRole, &stored.Designation,
		&stored.Payload, &stored.Target, &stored.Status, &stored.AttachmentRef, &stored.Signature, &stored.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *RequestsRepoImpl) List(ctx context.Context) ([]domain.RequestItem, error) {
	const q = `SELECT ` + requestCols + ` FROM requests ORDER BY seq`
	return r.query(ctx, q)
}

// ListByTarget returns tickets in arrival order (append-order = chronological).
func (r *RequestsRepoImpl) ListByTarget(ctx context.Context, target string) ([]domain.RequestItem, error) {
	const q = `SELECT ` + requestCols + ` FROM requests WHERE target = $1 ORDER BY seq`
	return r.query(ctx, q, target)
}

func (r *RequestsRepoImpl) query(ctx context.Context, q string, args ...any) ([]domain.RequestItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.RequestItem, 0)
	for rows.Next() {
		var it domain.RequestItem
		if err := rows.Scan(
			&it.ID, &it.Type, &it.Title, &it.CreatedBy, &it.CreatorRole, &it.Designation,
			&it.Payload, &it.Target, &it.Status, &it.AttachmentRef, &it.Signature, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

var _ RequestsRepo = (*RequestsRepoImpl)(nil)
