package payment

import (
	"context"
	"net/url"
	"strconv"
)

// StubProvider never leaves the process. It backs the instant top-up demo mode.
type StubProvider struct{}

func (StubProvider) CreatePayment(_ context.Context, req CreatePaymentRequest) (Payment, error) {
	q := url.Values{}
	q.Set("paid", "1")
	q.Set("kind", "topup")
	q.Set("topupId", req.ReferenceID)
	q.Set("totalCents", strconv.FormatInt(req.AmountCents, 10))
	return Payment{PaymentURL: "/success.html?" + q.Encode()}, nil
}
