package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type HoodPayClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHoodPayClient(baseURL, apiKey string, timeout time.Duration) *HoodPayClient {
	return &HoodPayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type hoodpayCustomer struct {
	Email string `json:"email"`
}

type hoodpayPaymentBody struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	ReferenceID string            `json:"referenceId"`
	SuccessURL  string            `json:"successUrl"`
	CancelURL   string            `json:"cancelUrl"`
	WebhookURL  string            `json:"webhookUrl"`
	Customer    hoodpayCustomer   `json:"customer"`
	Metadata    map[string]string `json:"metadata"`
}

func (c *HoodPayClient) CreatePayment(ctx context.Context, req CreatePaymentRequest) (Payment, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return Payment{}, ErrNotConfigured
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}

	body, err := json.Marshal(hoodpayPaymentBody{
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		Description: req.Description,
		ReferenceID: req.ReferenceID,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		WebhookURL:  req.WebhookURL,
		Customer:    hoodpayCustomer{Email: req.CustomerEmail},
		Metadata:    map[string]string{"referenceId": req.ReferenceID, "kind": "topup"},
	})
	if err != nil {
		return Payment{}, fmt.Errorf("encode payment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return Payment{}, &ProviderError{Code: CodeCreateFailed, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Payment{}, &ProviderError{Code: CodeCreateFailed, Details: map[string]any{"message": err.Error()}, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	data := map[string]any{}
	_ = json.Unmarshal(raw, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payment{}, &ProviderError{
			Code:    CodeCreateFailed,
			Details: map[string]any{"status": resp.StatusCode, "data": data},
		}
	}

	url := firstString(data, "paymentUrl", "checkoutUrl", "url")
	if url == "" {
		return Payment{}, &ProviderError{Code: CodeMissingPaymentURL, Details: data}
	}
	return Payment{PaymentURL: url, Raw: data}, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
