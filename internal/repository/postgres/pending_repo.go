package postgres

import (
	"context"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/repository"
)

type pendingRepo struct{ db DBTX }

const pendingCols = `id, email, amount_cents, created_at`

func scanPending(row interface{ Scan(...any) error }) (models.PendingTopup, error) {
	var t models.PendingTopup
	err := row.Scan(&t.ID, &t.Email, &t.AmountCents, &t.CreatedAt)
	return t, err
}

// Create also claims the id in topup_ids, which is never cleaned, so removed ids stay burned.
func (r *pendingRepo) Create(ctx context.Context, t models.PendingTopup) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO topup_ids(id) VALUES($1)`, t.ID); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO pending_topups(`+pendingCols+`) VALUES($1,$2,$3,$4)`,
		t.ID, t.Email, t.AmountCents, t.CreatedAt,
	)
	return err
}

func (r *pendingRepo) Get(ctx context.Context, id string) (models.PendingTopup, error) {
	t, err := scanPending(r.db.QueryRow(ctx, `SELECT `+pendingCols+` FROM pending_topups WHERE id=$1`, id))
	return t, notFound(err)
}

func (r *pendingRepo) Take(ctx context.Context, id string) (models.PendingTopup, error) {
	t, err := scanPending(r.db.QueryRow(ctx, `DELETE FROM pending_topups WHERE id=$1 RETURNING `+pendingCols, id))
	return t, notFound(err)
}

func (r *pendingRepo) DeleteOlderThan(ctx context.Context, before time.Time) ([]models.PendingTopup, error) {
	rows, err := r.db.Query(ctx,
		`DELETE FROM pending_topups WHERE created_at < $1 RETURNING `+pendingCols,
		before,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingTopup
	for rows.Next() {
		t, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pendingRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM pending_topups`).Scan(&n)
	return n, err
}

func (r *pendingRepo) SumByEmail(ctx context.Context, email string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents),0)::bigint FROM pending_topups WHERE email=$1`,
		email,
	).Scan(&sum)
	return sum, err
}
