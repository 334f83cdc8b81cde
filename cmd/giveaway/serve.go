package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"giveaway/internal/apperror"
	"giveaway/internal/clientip"
	"giveaway/internal/handlers"
	"giveaway/internal/middleware"
	"giveaway/internal/ratelimit"
	"giveaway/internal/utils"
)

type Serve struct {
	Addr string `short:"a" long:"addr" description:"address to listen on, overrides the config file"`
}

func (x *Serve) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()
	if x.Addr != "" {
		a.cfg.Addr = x.Addr
	}
	return a.serve(ctx)
}

// serve runs the HTTP server until ctx is done.
func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	secret := cfg.JWTSecret
	if secret == "" {
		secret = utils.GenerateNonce()
		log.Warn("jwt_secret not set, admin sessions will not survive a restart")
	}
	if cfg.AdminPassword == "" {
		log.Warn("admin_password not set, admin login is disabled")
	}

	proxies, err := cfg.ProxyPrefixes()
	if err != nil {
		return err
	}
	mw := []func(http.Handler) http.Handler{
		middleware.ClientIP(clientip.New(proxies...)),
		middleware.RequestLogger(log),
	}

	if cfg.GeoIPDB != "" {
		geo, err := middleware.OpenGeoIP(cfg.GeoIPDB)
		if err != nil {
			log.Warn("geoip database not loaded, geo checks disabled",
				zap.String("path", cfg.GeoIPDB), zap.Error(err))
		} else {
			defer geo.Close()
			mw = append(mw, middleware.GeoFence(geo, cfg.BannedGeoLocations, log))
		}
	}

	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		var limiter ratelimit.Limiter
		if a.backend.Redis != nil {
			limiter = ratelimit.NewRedisLimiter(a.backend.Redis, rpm)
		} else {
			mem := ratelimit.NewStore(rpm, cfg.RateLimit.Burst)
			go mem.Run(ctx, time.Minute)
			limiter = mem
		}
		mw = append(mw, middleware.RateLimiter(limiter, log))
	}

	h := handlers.New(log, handlers.Options{
		Store:         a.backend.Store,
		Service:       a.svc,
		Auth:          middleware.NewAdminAuth(secret, cfg.AdminTokenTTL, log),
		Validate:      apperror.NewValidator(),
		AdminPassword: cfg.AdminPassword,
		Backend:       cfg.Store,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.Routes(mw...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting giveaway service",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store),
			zap.Bool("atomic_admission", cfg.AtomicAdmission),
			zap.Bool("fail_open", cfg.FailOpenOnReadError))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("server exited gracefully")
	return nil
}
