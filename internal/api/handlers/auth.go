package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/api/validate"
	"github.com/baharkarakas/premiumshop-backend/internal/auth"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

type AuthHandler struct {
	Svc *services.AuthService
	Log *slog.Logger
	// SecureCookie adds the Secure attribute; set in prod.
	SecureCookie bool
}

func NewAuthHandler(svc *services.AuthService, log *slog.Logger, secure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Log: log, SecureCookie: secure}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginResp struct {
	OK   bool     `json:"ok"`
	User userResp `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := httpx.DecodeLoose[loginReq](r)
	if errs := validate.Collect(
		validate.Required("email", req.Email),
		validate.Required("password", req.Password),
	); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, services.ErrMissingCredentials.Code, map[string]any{"fields": errs})
		return
	}

	res, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteErr(w, h.Log, err)
		return
	}
	http.SetCookie(w, h.cookie(res.Token, int(time.Until(res.ExpiresAt).Seconds())))
	httpx.WriteJSON(w, http.StatusOK, loginResp{
		OK:   true,
		User: userResp{Email: res.User.Email, Name: res.User.Name},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// cookie builds the session cookie; maxAge < 0 expires it.
func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
