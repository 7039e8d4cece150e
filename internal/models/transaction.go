package models

import "time"

type TransactionType string

const (
	TxnCredit TransactionType = "credit"
	TxnDebit  TransactionType = "debit"
)

// Transaction is one applied wallet movement.
type Transaction struct {
	ID                string          `json:"id"`
	Email             string          `json:"email"`
	AmountCents       int64           `json:"amountCents"`
	BalanceAfterCents int64           `json:"balanceAfterCents"`
	Type              TransactionType `json:"type"`
	Reference         string          `json:"reference,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}
