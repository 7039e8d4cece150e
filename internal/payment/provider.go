package payment

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured means the provider credentials are missing.
var ErrNotConfigured = errors.New("missing_hoodpay_env")

const (
	CodeCreateFailed      = "hoodpay_create_failed"
	CodeMissingPaymentURL = "hoodpay_missing_paymentUrl"
)

type CreatePaymentRequest struct {
	AmountCents   int64
	Currency      string
	Description   string
	ReferenceID   string
	SuccessURL    string
	CancelURL     string
	WebhookURL    string
	CustomerEmail string
}

type Payment struct {
	PaymentURL string
	Raw        map[string]any
}

type Provider interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (Payment, error)
}

// ProviderError is a failed or unusable answer from the payment provider.
type ProviderError struct {
	Code    string
	Details any
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }
