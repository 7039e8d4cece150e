package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/api/validate"
	"github.com/baharkarakas/premiumshop-backend/internal/middleware"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type CheckoutHandler struct {
	Svc *services.CheckoutService
	Log *slog.Logger
}

type checkoutReq struct {
	Cart []models.CartLine `json:"cart"`
}

type checkoutResp struct {
	OK bool `json:"ok"`
	services.CheckoutResult
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	req := httpx.DecodeLoose[checkoutReq](r)
	if errs := validate.Collect(validate.NonEmpty("cart", req.Cart)); len(errs) > 0 {
		httpx.WriteErr(w, h.Log, services.ErrCartEmpty)
		return
	}
	res, err := h.Svc.Checkout(r.Context(), middleware.FromCtx(r.Context()).Email, req.Cart)
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkoutResp{OK: true, CheckoutResult: res})
}
