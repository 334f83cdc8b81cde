package main

import (
	"fmt"

	"go.uber.org/zap"

	"giveaway/internal/config"
	"giveaway/internal/eligibility"
	"giveaway/internal/logger"
	"giveaway/internal/store"
)

// app holds what every command needs: config, logger, the record store and
// the eligibility service on top of it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	backend *store.Backend
	svc     *eligibility.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newAppWithConfig(cfg)
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	log := logger.New(cfg.Env, cfg.LogFile)

	backend, err := store.Open(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	popts := eligibility.Options{
		Cooldown:            cfg.Cooldown(),
		FailOpenOnReadError: cfg.FailOpenOnReadError,
	}
	if cfg.EnforceGiveawayWindow {
		popts.Giveaways = backend.Store
	}
	policy := eligibility.NewPolicy(backend.Store, backend.Store, log, popts)

	var locker store.Locker
	if cfg.AtomicAdmission {
		locker = backend.Locker
	}

	return &app{
		cfg:     cfg,
		log:     log,
		backend: backend,
		svc:     eligibility.NewService(policy, backend.Store, locker, log),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}
