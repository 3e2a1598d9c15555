package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakline/staffdesk/internal/domain"
)

type InquiriesRepo interface {
	Create(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error)
	// List returns inquiries newest-first.
	List(ctx context.Context) ([]domain.Inquiry, error)
	CountByStatus(ctx context.Context, status domain.InquiryStatus) (int, error)
}

type InquiriesRepoImpl struct{ pool *pgxpool.Pool }

func NewInquiriesRepo(pool *pgxpool.Pool) *InquiriesRepoImpl { return &InquiriesRepoImpl{pool: pool} }

const inquiryCols = `id, guest_id, guest_name, guest_email, subject, message, status, created_at`

func (r *InquiriesRepoImpl) Create(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error) {
	const q = `
INSERT INTO inquiries (id, guest_id, guest_name, guest_email, subject, message, status)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + inquiryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stored domain.Inquiry
	if err := r.pool.QueryRow(ctx, q,
		inq.ID, inq.GuestID, inq.GuestName, inq.GuestEmail, inq.Subject, inq.Message, inq.Status,
	).Scan(
		&stored.ID, &stored.GuestID, &stored.GuestName, &stored.GuestEmail,
		&stored.Subject, &stored.Message, &stored.Status, &stored.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *InquiriesRepoImpl) List(ctx context.Context) ([]domain.Inquiry, error) {
	const q = `SELECT ` + inquiryCols + ` FROM inquiries ORDER BY created_at DESC, id DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inqs := make([]domain.Inquiry, 0)
	for rows.Next() {
		var inq domain.Inquiry
		if err := rows.Scan(
			&inq.ID, &inq.GuestID, &inq.GuestName, &inq.GuestEmail,
			&inq.Subject, &inq.Message, &inq.Status, &inq.CreatedAt,
		); err != nil {
			return nil, err
		}
		inqs = append(inqs, inq)
	}
	return inqs, rows.Err()
}

func (r *InquiriesRepoImpl) CountByStatus(ctx context.Context, status domain.InquiryStatus) (int, error) {
	const q = `SELECT count(*) FROM inquiries WHERE status = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, status).Scan(&n)
	return n, err
}

var _ InquiriesRepo = (*InquiriesRepoImpl)(nil)
