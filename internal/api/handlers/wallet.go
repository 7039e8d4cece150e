package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/middleware"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type WalletHandler struct {
	Svc *services.WalletService
	Log *slog.Logger
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	email := middleware.FromCtx(r.Context()).Email
	b, err := h.Svc.Balance(r.Context(), email)
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"balanceCents": b})
}
