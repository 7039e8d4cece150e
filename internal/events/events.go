package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	TypeTopupCredited = "topup_credited"
	TypeTopupExpired  = "topup_expired"
	TypeOrderPlaced   = "order_placed"
)

// Event is the envelope every published message uses.
type Event struct {
	Type         string    `json:"type"`
	Key          string    `json:"key"`
	Email        string    `json:"email"`
	Reference    string    `json:"reference"`
	AmountCents  int64     `json:"amountCents"`
	BalanceCents int64     `json:"balanceCents"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher writes events to the logger when no broker is configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, ev Event) error {
	p.Log.Info("event", "type", ev.Type, "key", ev.Key, "email", ev.Email, "reference", ev.Reference, "amount_cents", ev.AmountCents)
	return nil
}

func (LogPublisher) Close() error { return nil }
