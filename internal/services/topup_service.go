package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/events"
	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/payment"
	repo "github.com/baharkarakas/premiumshop-backend/internal/repository"
	"github.com/baharkarakas/premiumshop-backend/internal/worker"
)

type TopupConfig struct {
	MinCents        int64
	MaxCents        int64
	DailyLimitCents int64
	Window          time.Duration
	PendingTTL      time.Duration
	ProviderTimeout time.Duration
	BaseURL         string
	// Instant confirms a top-up as soon as the provider accepts it. Demo only.
	Instant bool
}

func DefaultTopupConfig() TopupConfig {
	return TopupConfig{
		MinCents:        1000,
		MaxCents:        50000,
		DailyLimitCents: 200000,
		Window:          24 * time.Hour,
		PendingTTL:      24 * time.Hour,
		ProviderTimeout: 10 * time.Second,
	}
}

type TopupService struct {
	repos    repo.Repositories
	wallet   *WalletService
	provider payment.Provider
	pub      events.Publisher
	wp       *worker.Pool
	log      *slog.Logger
	cfg      TopupConfig
	now      func() time.Time
}

func NewTopupService(r repo.Repositories, wallet *WalletService, provider payment.Provider, pub events.Publisher, wp *worker.Pool, log *slog.Logger, cfg TopupConfig) *TopupService {
	return &TopupService{
		repos:    r,
		wallet:   wallet,
		provider: provider,
		pub:      pub,
		wp:       wp,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ----------------- Helpers -----------------

func (s *TopupService) audit(id, action string, details map[string]any) {
	s.wp.Go(func() {
		l := models.AuditLog{EntityType: "topup", EntityID: &id, Action: action, Details: details, CreatedAt: s.now()}
		if err := s.repos.AuditLogs.Create(context.Background(), l); err != nil {
			s.log.Warn("audit write failed", "action", action, "topup_id", id, "err", err)
		}
	})
}

func (s *TopupService) publish(ev events.Event) {
	if s.pub == nil {
		return
	}
	s.wp.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.pub.Publish(ctx, ev); err != nil {
			s.log.Warn("publish event failed", "type", ev.Type, "key", ev.Key, "err", err)
		}
	})
}

// ParseAmount reads a loosely typed JSON amount. A missing value is NaN, null and "" are 0,
// numeric strings are parsed, booleans count as 0 or 1.
func ParseAmount(raw json.RawMessage) float64 {
	v := strings.TrimSpace(string(raw))
	if v == "" {
		return math.NaN()
	}
	switch v {
	case "null", "false":
		return 0
	case "true":
		return 1
	}
	if strings.HasPrefix(v, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return math.NaN()
		}
		v = strings.TrimSpace(str)
		if v == "" {
			return 0
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ValidateAmount applies the top-up amount rules in order and returns whole cents.
func (s *TopupService) ValidateAmount(amount float64) (int64, error) {
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return 0, ErrInvalidAmount
	case amount != math.Trunc(amount):
		return 0, ErrAmountNotInteger
	case amount < float64(s.cfg.MinCents):
		return 0, ErrBelowMinimum
	case amount > float64(s.cfg.MaxCents):
		return 0, ErrAboveMaximum
	}
	cents := int64(amount)
	if cents%100 != 0 {
		return 0, ErrNotWholeEuro
	}
	return cents, nil
}

// ----------------- CREATE -----------------

type CreateTopupInput struct {
	Email  string
	Amount float64
	// BaseURL overrides the configured public base URL, usually with the request origin.
	BaseURL string
}

type CreateTopupResult struct {
	TopupID    string `json:"topupId"`
	PaymentURL string `json:"paymentUrl"`
}

func (s *TopupService) Create(ctx context.Context, in CreateTopupInput) (CreateTopupResult, error) {
	email := models.NormalizeEmail(in.Email)
	amount, err := s.ValidateAmount(in.Amount)
	if err != nil {
		metrics.TopupsTotal.WithLabelValues("rejected").Inc()
		return CreateTopupResult{}, err
	}

	p, err := s.reserve(ctx, email, amount)
	if err != nil {
		return CreateTopupResult{}, err
	}
	metrics.TopupsTotal.WithLabelValues("created").Inc()
	metrics.PendingTopups.Inc()
	s.audit(p.ID, "created", map[string]any{"email": email, "amount_cents": amount})

	pay, err := s.callProvider(ctx, p, in.BaseURL)
	if err != nil {
		s.rollback(ctx, p, err)
		return CreateTopupResult{}, mapProviderError(err)
	}
	s.log.Info("topup created", "topup_id", p.ID, "email", email, "amount_cents", amount)

	if s.cfg.Instant {
		if _, err := s.Confirm(ctx, p.ID); err != nil {
			return CreateTopupResult{}, err
		}
	}
	return CreateTopupResult{TopupID: p.ID, PaymentURL: pay.PaymentURL}, nil
}

// reserve checks the rolling cap and records the pending entry under the user's wallet
// lock. Amounts still awaiting payment count against the cap alongside credited ones.
func (s *TopupService) reserve(ctx context.Context, email string, amount int64) (models.PendingTopup, error) {
	unlock := s.wallet.locks.Lock(email)
	defer unlock()

	now := s.now()
	credited, err := s.repos.TopupLog.SumSince(ctx, email, now.Add(-s.cfg.Window))
	if err != nil {
		return models.PendingTopup{}, fmt.Errorf("sum topup log: %w", err)
	}
	pending, err := s.repos.Pending.SumByEmail(ctx, email)
	if err != nil {
		return models.PendingTopup{}, fmt.Errorf("sum pending topups: %w", err)
	}
	used := credited + pending
	if used+amount > s.cfg.DailyLimitCents {
		metrics.TopupsTotal.WithLabelValues("rejected").Inc()
		return models.PendingTopup{}, ErrDailyLimitExceeded.With(map[string]any{
			"usedCents":  used,
			"limitCents": s.cfg.DailyLimitCents,
		})
	}

	p := models.PendingTopup{ID: NewTopupID(), Email: email, AmountCents: amount, CreatedAt: now}
	if err := s.repos.Pending.Create(ctx, p); err != nil {
		return models.PendingTopup{}, fmt.Errorf("create pending topup: %w", err)
	}
	return p, nil
}

func (s *TopupService) callProvider(ctx context.Context, p models.PendingTopup, baseURL string) (payment.Payment, error) {
	if baseURL == "" {
		baseURL = s.cfg.BaseURL
	}
	base := strings.TrimRight(baseURL, "/")
	id := url.QueryEscape(p.ID)

	cctx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.ProviderTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	}
	defer cancel()

	start := time.Now()
	pay, err := s.provider.CreatePayment(cctx, payment.CreatePaymentRequest{
		AmountCents:   p.AmountCents,
		Currency:      "EUR",
		Description:   fmt.Sprintf("PremiumShop Wallet Top-up (€%d)", p.AmountCents/100),
		ReferenceID:   p.ID,
		SuccessURL:    base + "/topup-success.html?paid=1&topupId=" + id,
		CancelURL:     base + "/cancel.html?canceled=1&topupId=" + id,
		WebhookURL:    base + "/api/hoodpay/webhook",
		CustomerEmail: p.Email,
	})
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	return pay, err
}

// rollback drops the pending entry after a failed provider call. It runs even when the
// request context is already canceled.
func (s *TopupService) rollback(ctx context.Context, p models.PendingTopup, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.repos.Pending.Take(ctx, p.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.Error("topup rollback failed", "topup_id", p.ID, "err", err)
		return
	}
	metrics.TopupsTotal.WithLabelValues("rolled_back").Inc()
	metrics.PendingTopups.Dec()
	s.audit(p.ID, "rolled_back", map[string]any{"email": p.Email, "reason": cause.Error()})
	s.log.Warn("topup rolled back", "topup_id", p.ID, "err", cause)
}

func mapProviderError(err error) error {
	if errors.Is(err, payment.ErrNotConfigured) {
		return ErrProviderNotConfigured
	}
	var pe *payment.ProviderError
	if errors.As(err, &pe) {
		base := ErrProviderFailed
		if pe.Code == payment.CodeMissingPaymentURL {
			base = ErrProviderNoPaymentURL
		}
		if pe.Details != nil {
			return base.With(map[string]any{"details": pe.Details}).Wrap(err)
		}
		return base.Wrap(err)
	}
	return ErrProviderFailed.With(map[string]any{"details": map[string]any{"message": err.Error()}}).Wrap(err)
}

// ----------------- STATUS -----------------

type TopupStatusResult struct {
	Status      models.TopupStatus `json:"status"`
	AmountCents int64              `json:"amountCents,omitempty"`
}

// Status reports a pending top-up to its owner. Anything no longer pending, whether
// credited, rolled back, expired or never created, reads as credited_or_unknown.
func (s *TopupService) Status(ctx context.Context, email, id string) (TopupStatusResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return TopupStatusResult{}, ErrMissingTopupID
	}
	p, err := s.repos.Pending.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return TopupStatusResult{Status: models.TopupCreditedOrUnknown}, nil
	}
	if err != nil {
		return TopupStatusResult{}, fmt.Errorf("get pending topup: %w", err)
	}
	if p.Email != models.NormalizeEmail(email) {
		return TopupStatusResult{}, ErrForbidden
	}
	return TopupStatusResult{Status: models.TopupPending, AmountCents: p.AmountCents}, nil
}

// ----------------- WEBHOOK -----------------

type WebhookOutcome string

const (
	WebhookCredited WebhookOutcome = "credited"
	WebhookIgnored  WebhookOutcome = "ignored"
	WebhookPending  WebhookOutcome = "pending"
)

func (s *TopupService) HandleWebhook(ctx context.Context, ev payment.Event) (WebhookOutcome, error) {
	if ev.ReferenceID == "" {
		metrics.WebhooksTotal.WithLabelValues("invalid").Inc()
		return "", ErrMissingReference
	}
	if _, err := s.repos.Pending.Get(ctx, ev.ReferenceID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			metrics.WebhooksTotal.WithLabelValues(string(WebhookIgnored)).Inc()
			s.log.Info("webhook ignored", "reference", ev.ReferenceID)
			return WebhookIgnored, nil
		}
		return "", fmt.Errorf("get pending topup: %w", err)
	}
	if !ev.Paid() {
		metrics.WebhooksTotal.WithLabelValues(string(WebhookPending)).Inc()
		return WebhookPending, nil
	}

	credited, err := s.Confirm(ctx, ev.ReferenceID)
	if err != nil {
		return "", err
	}
	out := WebhookIgnored
	if credited {
		out = WebhookCredited
	}
	metrics.WebhooksTotal.WithLabelValues(string(out)).Inc()
	return out, nil
}

// ----------------- CONFIRM -----------------

// Confirm credits a pending top-up. The pending entry is taken and the wallet credited in one
// transaction, so a top-up is credited at most once; a second call reports false.
func (s *TopupService) Confirm(ctx context.Context, id string) (bool, error) {
	p, err := s.repos.Pending.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get pending topup: %w", err)
	}

	unlock := s.wallet.locks.Lock(p.Email)
	defer unlock()

	var t models.Transaction
	taken := false
	err = s.repos.WithTx(ctx, func(r repo.Repositories) error {
		got, err := r.Pending.Take(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("take pending topup: %w", err)
		}
		taken, p = true, got
		t, err = s.wallet.creditIn(ctx, r, p.Email, p.AmountCents, p.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	if !taken {
		return false, nil
	}

	s.wallet.record(t)
	metrics.TopupsTotal.WithLabelValues("credited").Inc()
	metrics.PendingTopups.Dec()
	s.audit(p.ID, "credited", map[string]any{"email": p.Email, "amount_cents": p.AmountCents, "balance_after": t.BalanceAfterCents})
	s.publish(events.Event{
		Type:         events.TypeTopupCredited,
		Key:          p.ID,
		Email:        p.Email,
		Reference:    p.ID,
		AmountCents:  p.AmountCents,
		BalanceCents: t.BalanceAfterCents,
		OccurredAt:   t.CreatedAt,
	})
	s.log.Info("topup credited", "topup_id", p.ID, "email", p.Email, "amount_cents", p.AmountCents, "balance_cents", t.BalanceAfterCents)
	return true, nil
}

// ----------------- SWEEP -----------------

// SweepExpired drops pending top-ups older than the configured TTL.
func (s *TopupService) SweepExpired(ctx context.Context) ([]models.PendingTopup, error) {
	if s.cfg.PendingTTL <= 0 {
		return nil, nil
	}
	now := s.now()
	removed, err := s.repos.Pending.DeleteOlderThan(ctx, now.Add(-s.cfg.PendingTTL))
	if err != nil {
		return nil, fmt.Errorf("sweep pending topups: %w", err)
	}
	for _, p := range removed {
		metrics.TopupsTotal.WithLabelValues("expired").Inc()
		metrics.PendingTopups.Dec()
		s.audit(p.ID, "expired", map[string]any{"email": p.Email, "amount_cents": p.AmountCents})
		s.publish(events.Event{
			Type:        events.TypeTopupExpired,
			Key:         p.ID,
			Email:       p.Email,
			Reference:   p.ID,
			AmountCents: p.AmountCents,
			OccurredAt:  now,
		})
	}
	if len(removed) > 0 {
		s.log.Info("expired pending topups", "count", len(removed))
	}
	return removed, nil
}

// SyncPendingGauge sets the pending gauge from the store, which outlives the process and
// may be swept by shopctl.
func (s *TopupService) SyncPendingGauge(ctx context.Context) (int, error) {
	n, err := s.repos.Pending.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending topups: %w", err)
	}
	metrics.PendingTopups.Set(float64(n))
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done and resyncs the pending
// gauge after each sweep.
func (s *TopupService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("pending sweep failed", "err", err)
				continue
			}
			if _, err := s.SyncPendingGauge(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("pending gauge sync failed", "err", err)
			}
		}
	}
}
