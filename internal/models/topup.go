package models

import "time"

type TopupStatus string

const (
	TopupPending           TopupStatus = "pending"
	TopupCreditedOrUnknown TopupStatus = "credited_or_unknown"
)

type PendingTopup struct {
	ID          string    `json:"topupId"`
	Email       string    `json:"email"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TopupLogEntry is append-only and only feeds the rolling daily sum.
type TopupLogEntry struct {
	Email       string    `json:"email"`
	AmountCents int64     `json:"amountCents"`
	TS          time.Time `json:"ts"`
}
