// Package eligibility decides whether a client IP may enter a giveaway and
// keeps the restriction log that drives those decisions.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"giveaway/internal/store"
)

const day = 24 * time.Hour

// Options tune a Policy. Zero values fall back to the defaults noted on
// each field.
type Options struct {
	// Cooldown is the lock-out after any successful entry. Default 4 days.
	Cooldown time.Duration
	// FailOpenOnReadError admits the caller when a store read fails.
	FailOpenOnReadError bool
	// Giveaways, when set, lets the policy refuse entries to giveaways that
	// are inactive, past their end date or full.
	Giveaways store.GiveawayStore
	// Now defaults to time.Now.
	Now func() time.Time
}

type Policy struct {
	entries      store.EntryStore
	restrictions store.RestrictionStore
	giveaways    store.GiveawayStore
	cooldown     time.Duration
	failOpen     bool
	now          func() time.Time
	log          *zap.Logger
}

func NewPolicy(entries store.EntryStore, restrictions store.RestrictionStore, log *zap.Logger, opts Options) *Policy {
	if opts.Cooldown == 0 {
		opts.Cooldown = 4 * day
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		entries:      entries,
		restrictions: restrictions,
		giveaways:    opts.Giveaways,
		cooldown:     opts.Cooldown,
		failOpen:     opts.FailOpenOnReadError,
		now:          opts.Now,
		log:          log,
	}
}

// Evaluate decides whether ip may enter giveawayID. It never writes. The
// returned error is non-nil only when a read fails and the policy is not
// failing open.
func (p *Policy) Evaluate(ctx context.Context, giveawayID, ip string) (Decision, error) {
	now := p.now()

	entries, err := p.entries.ListEntries(ctx, giveawayID)
	if err != nil {
		return p.readFailure("list entries", giveawayID, ip, err)
	}
	for _, e := range entries {
		if e.IPAddress == ip {
			return alreadyEntered(), nil
		}
	}

	if p.giveaways != nil {
		g, err := p.giveaways.GetGiveaway(ctx, giveawayID)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return p.readFailure("get giveaway", giveawayID, ip, err)
		case !g.IsOpen(now, len(entries)):
			return giveawayClosed(), nil
		}
	}

	records, err := p.restrictions.ListRestrictionsForIP(ctx, ip)
	if err != nil {
		return p.readFailure("list restrictions", giveawayID, ip, err)
	}
	if len(records) == 0 {
		return admit(), nil
	}

	for _, r := range records {
		if r.IsBlocked {
			return adminBlocked(), nil
		}
	}

	// Every record counts; report the one that keeps the IP out longest.
	remaining := 0
	for _, r := range records {
		if d := remainingDays(p.cooldown, now.Sub(r.LastEntryDate)); d > remaining {
			remaining = d
		}
	}
	if remaining > 0 {
		return cooldownActive(remaining), nil
	}
	return admit(), nil
}

// remainingDays is ceil(cooldown - elapsed) in whole days. A record dated in
// the future counts as just written, so the result never exceeds the
// cooldown itself.
func remainingDays(cooldown, elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= cooldown {
		return 0
	}
	return int(math.Ceil((cooldown - elapsed).Hours() / 24))
}

func (p *Policy) readFailure(step, giveawayID, ip string, err error) (Decision, error) {
	if p.failOpen {
		p.log.Warn("eligibility read failed, admitting",
			zap.String("step", step),
			zap.String("giveaway_id", giveawayID),
			zap.String("ip", ip),
			zap.Error(err))
		return Decision{Admit: true, Degraded: true}, nil
	}
	return Decision{}, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, step, err)
}
