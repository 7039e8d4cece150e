package repository

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
)

var (
	ErrNotFound            = errors.New("repository: not found")
	ErrAlreadyExists       = errors.New("repository: already exists")
	ErrInsufficientBalance = errors.New("repository: insufficient balance")
)

type Users interface {
	GetOrCreate(ctx context.Context, email string) (models.User, error)
	Get(ctx context.Context, email string) (models.User, error)
	SetName(ctx context.Context, email, name string) (models.User, error)
	Credit(ctx context.Context, email string, amount int64) (models.User, error)
	// Debit only applies when the balance covers amount; otherwise ErrInsufficientBalance
	// and nothing changes.
	Debit(ctx context.Context, email string, amount int64) (models.User, error)
}

type PendingTopups interface {
	Create(ctx context.Context, t models.PendingTopup) error
	Get(ctx context.Context, id string) (models.PendingTopup, error)
	// Take removes and returns the entry. Only one caller can ever take a given id.
	Take(ctx context.Context, id string) (models.PendingTopup, error)
	DeleteOlderThan(ctx context.Context, before time.Time) ([]models.PendingTopup, error)
	Count(ctx context.Context) (int, error)
	// SumByEmail totals the amounts still awaiting payment for one user.
	SumByEmail(ctx context.Context, email string) (int64, error)
}

type TopupLog interface {
	Append(ctx context.Context, e models.TopupLogEntry) error
	// SumSince counts entries with ts >= since.
	SumSince(ctx context.Context, email string, since time.Time) (int64, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

type Repositories struct {
	Users     Users
	Pending   PendingTopups
	TopupLog  TopupLog
	AuditLogs AuditLogs
	Tx        TxRunner
}

// WithTx runs fn against repositories bound to one transaction when the backend has them,
// otherwise against r itself.
func (r Repositories) WithTx(ctx context.Context, fn func(Repositories) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx.WithTx(ctx, fn)
}
