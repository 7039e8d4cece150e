package postgres

import (
	"context"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
)

type topupLogRepo struct{ db DBTX }

func (r *topupLogRepo) Append(ctx context.Context, e models.TopupLogEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO topup_log(email, amount_cents, ts) VALUES($1,$2,$3)`,
		e.Email, e.AmountCents, e.TS,
	)
	return err
}

func (r *topupLogRepo) SumSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM topup_log WHERE email=$1 AND ts >= $2`,
		email, since,
	).Scan(&sum)
	return sum, err
}
