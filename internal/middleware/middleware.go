package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"giveaway/internal/clientip"
	"giveaway/internal/ratelimit"
)

type contextKey string

const clientIPKey contextKey = "client_ip"

// ClientIPFrom returns the identifier stored by ClientIP, or "" outside a
// request that went through it.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// WithClientIP is exposed for handler tests that skip the middleware chain.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP resolves the caller once per request and stores it on the
// context. Clients without a readable address get a cookie so they keep the
// same pseudo-identifier.
func ClientIP(res *clientip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, fallback := res.Resolve(r)
			if fallback {
				clientip.Remember(w, ip)
			}
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", ClientIPFrom(r.Context())),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// RateLimiter rejects callers over their request budget with 429. Limiter
// errors are logged and the request is let through.
func RateLimiter(l ratelimit.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFrom(r.Context())
			allowed, err := l.Allow(r.Context(), ip)
			if err != nil {
				log.Error("rate limit check failed", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				log.Warn("rate limit exceeded", zap.String("ip", ip))
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
