package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"giveaway/internal/clientip"
	"giveaway/internal/ratelimit"
)

var echoIP = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(ClientIPFrom(r.Context())))
})

func TestClientIP_StoresAddress(t *testing.T) {
	h := ClientIP(clientip.New(netip.MustParsePrefix("192.0.2.0/24")))(echoIP)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.4")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "198.51.100.4", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestClientIP_FallbackSetsCookie(t *testing.T) {
	h := ClientIP(clientip.New())(echoIP)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ""
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.True(t, strings.HasPrefix(w.Body.String(), "anon-"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, clientip.CookieName, cookies[0].Name)
	assert.Equal(t, w.Body.String(), cookies[0].Value)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := ClientIP(clientip.New())(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	r := httptest.NewRequest(http.MethodPost, "/api/x", nil)
	r.RemoteAddr = "203.0.113.5:1000"
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/x", fields["path"])
	assert.Equal(t, "203.0.113.5", fields["ip"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimiter(t *testing.T) {
	h := RateLimiter(ratelimit.NewStore(60, 2), zaptest.NewLogger(t))(echoIP)

	call := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithClientIP(r.Context(), ip))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("1.2.3.4"))
	assert.Equal(t, http.StatusOK, call("1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, call("1.2.3.4"))
	assert.Equal(t, http.StatusOK, call("5.6.7.8"))
}

func TestRateLimiter_ErrorLetsRequestThrough(t *testing.T) {
	h := RateLimiter(failingLimiter{}, zaptest.NewLogger(t))(echoIP)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeGeo map[string]string

func (f fakeGeo) Country(ip netip.Addr) (string, error) {
	code, found := f[ip.String()]
	if !found {
		return "", errors.New("not in database")
	}
	return code, nil
}

func TestGeoFence(t *testing.T) {
	geo := fakeGeo{"198.51.100.1": "KP", "198.51.100.2": "CA"}
	h := GeoFence(geo, []string{"kp"}, zaptest.NewLogger(t))(echoIP)

	tests := []struct {
		ip   string
		want int
	}{
		{"198.51.100.1", http.StatusForbidden},
		{"198.51.100.2", http.StatusOK},
		{"198.51.100.3", http.StatusOK},
		{"anon-xyz", http.StatusOK},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithClientIP(r.Context(), tt.ip))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, tt.want, w.Code, tt.ip)
	}
}

func TestGeoFence_DisabledWithoutDatabase(t *testing.T) {
	h := GeoFence(nil, []string{"KP"}, zaptest.NewLogger(t))(echoIP)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuth(t *testing.T) {
	a := NewAdminAuth("test-secret", time.Hour, zaptest.NewLogger(t))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	token, err := a.Issue("admin")
	require.NoError(t, err)
	require.NoError(t, a.Verify(token))

	r := chi.NewRouter()
	r.With(a.RequireAdmin).Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	call := func(setup func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(func(*http.Request) {}))
	assert.Equal(t, http.StatusNoContent, call(func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}))
	assert.Equal(t, http.StatusNoContent, call(func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: token})
	}))
	assert.Equal(t, http.StatusUnauthorized, call(func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token+"x")
	}))

	other := NewAdminAuth("other-secret", time.Hour, zaptest.NewLogger(t))
	forged, err := other.Issue("admin")
	require.NoError(t, err)
	assert.ErrorIs(t, a.Verify(forged), ErrUnauthorized)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, http.StatusUnauthorized, call(func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}))
}

func TestAdminAuth_RejectsNoneAlgorithm(t *testing.T) {
	a := NewAdminAuth("test-secret", time.Hour, zaptest.NewLogger(t))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "giveaway",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Verify(unsigned), ErrUnauthorized)
}
