package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/middleware"
	"github.com/baharkarakas/premiumshop-backend/internal/payment"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type TopupHandler struct {
	Svc *services.TopupService
	Log *slog.Logger
	// PublicBaseURL wins over the request origin when building provider redirect URLs.
	PublicBaseURL string
	// WebhookSecret verifies provider webhooks; empty accepts every request.
	WebhookSecret string
}

type createTopupReq struct {
	AmountCents json.RawMessage `json:"amountCents"`
}

type createTopupResp struct {
	OK bool `json:"ok"`
	services.CreateTopupResult
}

func (h *TopupHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := httpx.DecodeLoose[createTopupReq](r)
	res, err := h.Svc.Create(r.Context(), services.CreateTopupInput{
		Email:   middleware.FromCtx(r.Context()).Email,
		Amount:  services.ParseAmount(req.AmountCents),
		BaseURL: h.baseURL(r),
	})
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, createTopupResp{OK: true, CreateTopupResult: res})
}

type topupStatusResp struct {
	OK bool `json:"ok"`
	services.TopupStatusResult
}

func (h *TopupHandler) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Status(r.Context(), middleware.FromCtx(r.Context()).Email, r.URL.Query().Get("topupId"))
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, topupStatusResp{OK: true, TopupStatusResult: res})
}

// Webhook handles provider payment events. Only a paid event for a pending top-up credits.
func (h *TopupHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if !payment.VerifySignature(h.WebhookSecret, body, r.Header) {
		h.Log.Warn("webhook signature rejected", "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteErr(w, h.Log, services.ErrInvalidSignature)
		return
	}

	out, err := h.Svc.HandleWebhook(r.Context(), payment.ParseEvent(body))
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	resp := map[string]bool{"ok": true}
	switch out {
	case services.WebhookIgnored:
		resp["ignored"] = true
	case services.WebhookPending:
		resp["pending"] = true
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// baseURL is the configured public URL, else the request origin.
func (h *TopupHandler) baseURL(r *http.Request) string {
	if h.PublicBaseURL != "" {
		return h.PublicBaseURL
	}
	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		return strings.TrimRight(o, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + r.Host
}
