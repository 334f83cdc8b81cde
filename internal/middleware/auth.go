package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const AdminCookieName = "giveaway_admin"

var ErrUnauthorized = errors.New("unauthorized")

// AdminAuth issues and checks the HMAC-signed tokens that gate the admin API.
type AdminAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewAdminAuth(secret string, ttl time.Duration, log *zap.Logger) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), ttl: ttl, now: time.Now, log: log}
}

// TTL is how long issued tokens stay valid.
func (a *AdminAuth) TTL() time.Duration { return a.ttl }

// Issue signs a token for subject.
func (a *AdminAuth) Issue(subject string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "giveaway",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify checks the signature and expiry of raw.
func (a *AdminAuth) Verify(raw string) error {
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer("giveaway"), jwt.WithTimeFunc(a.now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// tokenFrom reads Authorization: Bearer first, then the admin cookie.
func tokenFrom(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie(AdminCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := a.Verify(raw); err != nil {
			a.log.Info("admin token rejected",
				zap.String("ip", ClientIPFrom(r.Context())),
				zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
