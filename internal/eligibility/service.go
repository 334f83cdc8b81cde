package eligibility

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"giveaway/internal/store"
	"giveaway/internal/types"
)

// RecordStore is the slice of the record store the service writes to.
type RecordStore interface {
	store.EntryStore
	store.RestrictionStore
}

// Service wraps the policy with the writes that follow an admission and the
// operator actions on the restriction log.
type Service struct {
	policy   *Policy
	store    RecordStore
	locker   store.Locker
	cooldown time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewService builds a Service. A nil locker keeps evaluate and write as two
// separate steps, so two concurrent submissions from one IP may both pass.
func NewService(policy *Policy, st RecordStore, locker store.Locker, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		policy:   policy,
		store:    st,
		locker:   locker,
		cooldown: policy.cooldown,
		now:      policy.now,
		log:      log,
	}
}

func (s *Service) Policy() *Policy { return s.policy }

// Evaluate is a convenience for Policy().Evaluate.
func (s *Service) Evaluate(ctx context.Context, giveawayID, ip string) (Decision, error) {
	return s.policy.Evaluate(ctx, giveawayID, ip)
}

// Enter evaluates entry.IPAddress against entry.GiveawayID and, if admitted,
// stores the entry. The id is empty when the entry was denied.
func (s *Service) Enter(ctx context.Context, entry types.GiveawayEntry) (Decision, string, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, entry.IPAddress)
		switch {
		case err == nil:
			defer unlock()
		case s.policy.failOpen:
			s.log.Warn("admission lock unavailable, continuing unlocked",
				zap.String("ip", entry.IPAddress), zap.Error(err))
		default:
			return Decision{}, "", fmt.Errorf("%w: admission lock: %w", ErrStoreUnavailable, err)
		}
	}

	d, err := s.policy.Evaluate(ctx, entry.GiveawayID, entry.IPAddress)
	if err != nil || !d.Admit {
		return d, "", err
	}
	id, err := s.SubmitEntry(ctx, entry)
	if err != nil {
		return d, "", err
	}
	return d, id, nil
}

// SubmitEntry stores an already-admitted entry and starts the cooldown for
// its IP. A failure to record the cooldown is logged, not returned: the
// entry stands.
func (s *Service) SubmitEntry(ctx context.Context, entry types.GiveawayEntry) (string, error) {
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = s.now().UTC()
	}
	id, err := s.store.AppendEntry(ctx, entry.GiveawayID, entry)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	s.log.Info("entry stored",
		zap.String("giveaway_id", entry.GiveawayID),
		zap.String("entry_id", id),
		zap.String("ip", entry.IPAddress))

	if err := s.RecordEntry(ctx, entry.IPAddress, entry.GiveawayID); err != nil {
		s.log.Error("cooldown not recorded, entry kept",
			zap.String("giveaway_id", entry.GiveawayID),
			zap.String("entry_id", id),
			zap.String("ip", entry.IPAddress),
			zap.Error(err))
	}
	return id, nil
}

// RecordEntry appends a cooldown record for ip. Earlier records are left
// untouched.
func (s *Service) RecordEntry(ctx context.Context, ip, giveawayID string) error {
	_, err := s.store.AppendRestriction(ctx, types.IPRestriction{
		IPAddress:     ip,
		GiveawayID:    giveawayID,
		LastEntryDate: s.now().UTC(),
		IsBlocked:     false,
	})
	return err
}

// BlockIP adds an administrator block for ip. Repeated blocks each add a
// record.
func (s *Service) BlockIP(ctx context.Context, ip string) (string, error) {
	ip, ok := canonicalClientID(ip)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	id, err := s.store.AppendRestriction(ctx, types.IPRestriction{
		IPAddress:     ip,
		GiveawayID:    types.AdminBlockGiveawayID,
		LastEntryDate: s.now().UTC(),
		IsBlocked:     true,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("ip blocked", zap.String("ip", ip), zap.String("restriction_id", id))
	return id, nil
}

// Unblock deletes exactly one restriction record. Other records for the same
// IP still apply.
func (s *Service) Unblock(ctx context.Context, restrictionID string) error {
	if err := s.store.DeleteRestriction(ctx, restrictionID); err != nil {
		return err
	}
	s.log.Info("restriction removed", zap.String("restriction_id", restrictionID))
	return nil
}

// canonicalClientID accepts IP addresses and the fallback identifiers handed
// out to clients whose address could not be read. Addresses come back in
// the same form the request resolver produces, so "2001:0DB8::1" and
// "::ffff:1.2.3.4" match the clients they name.
func canonicalClientID(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if ip := net.ParseIP(v); ip != nil {
		return ip.String(), true
	}
	return v, strings.HasPrefix(v, "anon-") && len(v) > len("anon-")
}

const (
	StatusBlocked   = "blocked"
	StatusCooldown  = "cooldown"
	StatusAvailable = "available"
)

// RestrictionStatus is a restriction record with its state at a point in time.
type RestrictionStatus struct {
	types.IPRestriction
	Status        string `json:"status"`
	DaysRemaining int    `json:"daysRemaining"`
	AdminBlock    bool   `json:"adminBlock"`
}

// Restrictions lists every restriction record with its current status.
func (s *Service) Restrictions(ctx context.Context) ([]RestrictionStatus, error) {
	records, err := s.store.ListRestrictions(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]RestrictionStatus, 0, len(records))
	for _, r := range records {
		out = append(out, s.statusOf(r, now))
	}
	return out, nil
}

func (s *Service) statusOf(r types.IPRestriction, now time.Time) RestrictionStatus {
	st := RestrictionStatus{IPRestriction: r, Status: StatusAvailable, AdminBlock: r.IsAdminBlock()}
	if r.IsBlocked {
		st.Status = StatusBlocked
		return st
	}
	if days := remainingDays(s.cooldown, now.Sub(r.LastEntryDate)); days > 0 {
		st.Status = StatusCooldown
		st.DaysRemaining = days
	}
	return st
}
