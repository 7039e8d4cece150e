package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	repo "github.com/baharkarakas/premiumshop-backend/internal/repository"
	"github.com/baharkarakas/premiumshop-backend/internal/worker"
)

// WalletService owns every balance mutation. Mutations for one email are serialized by
// a keyed lock; the store additionally refuses a debit the balance does not cover.
type WalletService struct {
	repos repo.Repositories
	locks *keyedMutex
	wp    *worker.Pool
	log   *slog.Logger
	now   func() time.Time
}

func NewWalletService(r repo.Repositories, wp *worker.Pool, log *slog.Logger) *WalletService {
	return &WalletService{repos: r, locks: newKeyedMutex(), wp: wp, log: log, now: time.Now}
}

// ----------------- Helpers -----------------

func (s *WalletService) audit(entityID, action string, details map[string]any) {
	s.wp.Go(func() {
		l := models.AuditLog{
			EntityType: "wallet",
			EntityID:   &entityID,
			Action:     action,
			Details:    details,
			CreatedAt:  s.now(),
		}
		if err := s.repos.AuditLogs.Create(context.Background(), l); err != nil {
			s.log.Warn("audit write failed", "action", action, "entity", entityID, "err", err)
		}
	})
}

func (s *WalletService) record(t models.Transaction) {
	metrics.WalletMovementsTotal.WithLabelValues(string(t.Type)).Inc()
	metrics.WalletMovementCents.WithLabelValues(string(t.Type)).Add(float64(t.AmountCents))
	s.audit(t.Email, string(t.Type), map[string]any{
		"transaction_id": t.ID,
		"amount_cents":   t.AmountCents,
		"balance_after":  t.BalanceAfterCents,
		"reference":      t.Reference,
	})
}

// ----------------- Queries -----------------

func (s *WalletService) Balance(ctx context.Context, email string) (int64, error) {
	u, err := s.repos.Users.GetOrCreate(ctx, models.NormalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}
	return u.BalanceCents, nil
}

// ----------------- CREDIT -----------------

// Credit adds amount to the balance and appends it to the top-up log.
func (s *WalletService) Credit(ctx context.Context, email string, amount int64, ref string) (models.Transaction, error) {
	email = models.NormalizeEmail(email)
	if amount <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	unlock := s.locks.Lock(email)
	defer unlock()

	var t models.Transaction
	err := s.repos.WithTx(ctx, func(r repo.Repositories) error {
		var err error
		t, err = s.creditIn(ctx, r, email, amount, ref)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.record(t)
	return t, nil
}

// creditIn applies a credit inside an existing transaction. The caller holds the email lock
// and calls record after commit.
func (s *WalletService) creditIn(ctx context.Context, r repo.Repositories, email string, amount int64, ref string) (models.Transaction, error) {
	now := s.now()
	u, err := r.Users.Credit(ctx, email, amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("credit balance: %w", err)
	}
	if err := r.TopupLog.Append(ctx, models.TopupLogEntry{Email: email, AmountCents: amount, TS: now}); err != nil {
		return models.Transaction{}, fmt.Errorf("append topup log: %w", err)
	}
	return models.Transaction{
		ID:                newID("txn_"),
		Email:             email,
		AmountCents:       amount,
		BalanceAfterCents: u.BalanceCents,
		Type:              models.TxnCredit,
		Reference:         ref,
		CreatedAt:         now,
	}, nil
}

// ----------------- DEBIT -----------------

// Debit subtracts amount when the balance covers it. On ErrInsufficientBalance the
// returned transaction carries the untouched balance in BalanceAfterCents.
func (s *WalletService) Debit(ctx context.Context, email string, amount int64, ref string) (models.Transaction, error) {
	email = models.NormalizeEmail(email)
	if amount <= 0 {
		return models.Transaction{}, ErrInvalidAmount
	}
	unlock := s.locks.Lock(email)
	defer unlock()

	u, err := s.repos.Users.Debit(ctx, email, amount)
	if errors.Is(err, repo.ErrInsufficientBalance) {
		return models.Transaction{Email: email, BalanceAfterCents: u.BalanceCents},
			ErrInsufficientBalance.With(map[string]any{"balanceCents": u.BalanceCents})
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("debit balance: %w", err)
	}

	t := models.Transaction{
		ID:                newID("txn_"),
		Email:             email,
		AmountCents:       amount,
		BalanceAfterCents: u.BalanceCents,
		Type:              models.TxnDebit,
		Reference:         ref,
		CreatedAt:         s.now(),
	}
	s.record(t)
	return t, nil
}
