package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type ProductHandler struct {
	Source catalog.Source
	Log    *slog.Logger
}

type productResp struct {
	models.Product
	UnitPriceCents int64 `json:"unitPriceCents"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := h.Source.Load(r.Context())
	if err != nil {
		httpx.WriteErr(w, h.Log, services.ErrCatalogUnavailable.Wrap(err))
		return
	}
	if c.Len() == 0 {
		httpx.WriteErr(w, h.Log, services.ErrCatalogUnavailable)
		return
	}
	out := make([]productResp, 0, c.Len())
	for _, p := range c.Products() {
		out = append(out, productResp{Product: p, UnitPriceCents: catalog.UnitPriceCents(p)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": out})
}
