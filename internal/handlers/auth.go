package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"

	"giveaway/internal/middleware"
)

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the admin password for a signed token, returned in the
// body and as a cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.adminPassword == "" {
		h.writeError(w, http.StatusServiceUnavailable, "admin login is not configured")
		return
	}
	var req LoginRequest
	if !h.decode(w, r, &req) || !h.valid(w, req) {
		return
	}
	ip := middleware.ClientIPFrom(r.Context())
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		h.log.Warn("admin login failed", zap.String("ip", ip))
		h.writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := h.auth.Issue("admin")
	if err != nil {
		h.log.Error("sign admin token", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	expires := h.now().Add(h.auth.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    token,
		Path:     "/api/admin",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	h.log.Info("admin login", zap.String("ip", ip))
	h.writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/api/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
