package services

import (
	"fmt"
	"maps"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindBusiness   Kind = "business"
	KindUpstream   Kind = "upstream"
	KindConfig     Kind = "config"
	KindServer     Kind = "server"
)

// Error is a domain failure that the API layer serializes as {"error": Code, ...Fields}.
type Error struct {
	Kind   Kind
	Code   string
	Status int
	Fields map[string]any
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code, so a copy carrying fields still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy of e carrying extra response fields.
func (e *Error) With(fields map[string]any) *Error {
	cp := *e
	cp.Fields = make(map[string]any, len(e.Fields)+len(fields))
	maps.Copy(cp.Fields, e.Fields)
	maps.Copy(cp.Fields, fields)
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func newErr(kind Kind, status int, code string) *Error {
	return &Error{Kind: kind, Code: code, Status: status}
}

var (
	// Top-up amount validation
	ErrInvalidAmount    = newErr(KindValidation, http.StatusBadRequest, "invalid_amount")
	ErrAmountNotInteger = newErr(KindValidation, http.StatusBadRequest, "amount_not_integer")
	ErrBelowMinimum     = newErr(KindValidation, http.StatusBadRequest, "min_10_eur")
	ErrAboveMaximum     = newErr(KindValidation, http.StatusBadRequest, "max_500_eur")
	ErrNotWholeEuro     = newErr(KindValidation, http.StatusBadRequest, "must_be_whole_eur")
	ErrMissingTopupID   = newErr(KindValidation, http.StatusBadRequest, "missing_topupId")
	ErrMissingReference = newErr(KindValidation, http.StatusBadRequest, "missing_referenceId")

	ErrDailyLimitExceeded = newErr(KindRateLimit, http.StatusTooManyRequests, "daily_limit_reached")

	// Auth
	ErrMissingCredentials = newErr(KindValidation, http.StatusBadRequest, "missing_credentials")
	ErrInvalidLogin       = newErr(KindAuth, http.StatusUnauthorized, "invalid_login")
	ErrNotLoggedIn        = newErr(KindAuth, http.StatusUnauthorized, "not_logged_in")
	ErrForbidden          = newErr(KindAuth, http.StatusForbidden, "forbidden")
	ErrInvalidSignature   = newErr(KindAuth, http.StatusUnauthorized, "invalid_signature")

	// Checkout
	ErrCartEmpty           = newErr(KindValidation, http.StatusBadRequest, "cart_empty")
	ErrUnknownProduct      = newErr(KindBusiness, http.StatusBadRequest, "unknown_product")
	ErrInvalidPrice        = newErr(KindValidation, http.StatusBadRequest, "invalid_price")
	ErrInsufficientBalance = newErr(KindBusiness, http.StatusPaymentRequired, "insufficient_balance")
	ErrCatalogUnavailable  = newErr(KindServer, http.StatusInternalServerError, "catalog_empty")

	// Payment provider
	ErrProviderNotConfigured = newErr(KindConfig, http.StatusInternalServerError, "missing_hoodpay_env")
	ErrProviderFailed        = newErr(KindUpstream, http.StatusBadGateway, "hoodpay_create_failed")
	ErrProviderNoPaymentURL  = newErr(KindUpstream, http.StatusBadGateway, "hoodpay_missing_paymentUrl")
)
