package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/events"
	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/worker"
)

const maxLineQty = 99

type CheckoutService struct {
	wallet  *WalletService
	catalog catalog.Source
	pub     events.Publisher
	wp      *worker.Pool
	log     *slog.Logger
}

func NewCheckoutService(wallet *WalletService, src catalog.Source, pub events.Publisher, wp *worker.Pool, log *slog.Logger) *CheckoutService {
	return &CheckoutService{wallet: wallet, catalog: src, pub: pub, wp: wp, log: log}
}

type CheckoutResult struct {
	OrderID      string `json:"orderId"`
	TotalCents   int64  `json:"totalCents"`
	BalanceCents int64  `json:"balanceCents"`
}

// lineQty defaults a missing or invalid quantity to 1 and clamps to [1, 99].
func lineQty(q float64) int64 {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 1
	}
	n := int64(math.Max(1, math.Min(maxLineQty, math.Trunc(q))))
	return n
}

// Total prices the cart against the catalog. The first bad line decides the error;
// a line that would overflow the running total counts as an invalid price.
func Total(c *catalog.Catalog, lines []models.CartLine) (int64, error) {
	var total int64
	for _, l := range lines {
		p, ok := c.Find(l.ProductID)
		if !ok {
			return 0, ErrUnknownProduct.With(map[string]any{"id": l.ProductID})
		}
		unit := catalog.UnitPriceCents(p)
		if unit <= 0 {
			return 0, ErrInvalidPrice.With(map[string]any{"id": l.ProductID})
		}
		qty := lineQty(l.Qty)
		if unit > (math.MaxInt64-total)/qty {
			return 0, ErrInvalidPrice.With(map[string]any{"id": l.ProductID})
		}
		total += unit * qty
	}
	return total, nil
}

// Checkout prices the cart server side and debits the wallet when the balance covers it.
func (s *CheckoutService) Checkout(ctx context.Context, email string, lines []models.CartLine) (CheckoutResult, error) {
	email = models.NormalizeEmail(email)
	if len(lines) == 0 {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return CheckoutResult{}, ErrCartEmpty
	}

	c, err := s.catalog.Load(ctx)
	if err != nil {
		s.log.Error("catalog load failed", "err", err)
		return CheckoutResult{}, ErrCatalogUnavailable.Wrap(err)
	}
	if c.Len() == 0 {
		return CheckoutResult{}, ErrCatalogUnavailable
	}

	total, err := Total(c, lines)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return CheckoutResult{}, err
	}

	orderID := NewOrderID()
	t, err := s.wallet.Debit(ctx, email, total, orderID)
	if errors.Is(err, ErrInsufficientBalance) {
		metrics.CheckoutsTotal.WithLabelValues("insufficient_balance").Inc()
		return CheckoutResult{}, ErrInsufficientBalance.With(map[string]any{
			"totalCents":   total,
			"balanceCents": t.BalanceAfterCents,
		})
	}
	if err != nil {
		return CheckoutResult{}, err
	}
	metrics.CheckoutsTotal.WithLabelValues("ok").Inc()

	if s.pub != nil {
		ev := events.Event{
			Type:         events.TypeOrderPlaced,
			Key:          orderID,
			Email:        email,
			Reference:    orderID,
			AmountCents:  total,
			BalanceCents: t.BalanceAfterCents,
			OccurredAt:   t.CreatedAt,
		}
		s.wp.Go(func() {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.pub.Publish(pctx, ev); err != nil {
				s.log.Warn("publish event failed", "type", ev.Type, "key", ev.Key, "err", err)
			}
		})
	}
	s.log.Info("order placed", "order_id", orderID, "email", email, "total_cents", total, "balance_cents", t.BalanceAfterCents)
	return CheckoutResult{OrderID: orderID, TotalCents: total, BalanceCents: t.BalanceAfterCents}, nil
}
