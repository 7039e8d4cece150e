package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/premiumshop-backend/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	r := bind(pool)
	r.Tx = &txRunner{pool: pool}
	return r
}

func bind(db DBTX) repo.Repositories {
	return repo.Repositories{
		Users:     &usersRepo{db},
		Pending:   &pendingRepo{db},
		TopupLog:  &topupLogRepo{db},
		AuditLogs: &auditLogsRepo{db},
	}
}

type txRunner struct{ pool *pgxpool.Pool }

// WithTx runs fn inside one serializable transaction.
func (t *txRunner) WithTx(ctx context.Context, fn func(repo.Repositories) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(bind(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
