package store

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"giveaway/internal/types"
)

var ErrNotFound = errors.New("not found")

// EntryStore holds submitted entries keyed by giveaway.
type EntryStore interface {
	ListEntries(ctx context.Context, giveawayID string) ([]types.GiveawayEntry, error)
	ListAllEntries(ctx context.Context) (map[string][]types.GiveawayEntry, error)
	AppendEntry(ctx context.Context, giveawayID string, entry types.GiveawayEntry) (string, error)
	DeleteEntry(ctx context.Context, giveawayID, entryID string) error
}

// RestrictionStore is an append-only log of per-IP restriction records.
// Records are removed only by an explicit delete.
type RestrictionStore interface {
	ListRestrictionsForIP(ctx context.Context, ip string) ([]types.IPRestriction, error)
	ListRestrictions(ctx context.Context) ([]types.IPRestriction, error)
	AppendRestriction(ctx context.Context, r types.IPRestriction) (string, error)
	DeleteRestriction(ctx context.Context, id string) error
}

type GiveawayStore interface {
	CreateGiveaway(ctx context.Context, g types.Giveaway) (string, error)
	GetGiveaway(ctx context.Context, id string) (*types.Giveaway, error)
	ListGiveaways(ctx context.Context) ([]types.Giveaway, error)
	UpdateGiveaway(ctx context.Context, id string, patch types.GiveawayPatch) (*types.Giveaway, error)
	// DeleteGiveaway removes the giveaway and every entry submitted to it.
	DeleteGiveaway(ctx context.Context, id string) error
}

type WinnerStore interface {
	CreateWinner(ctx context.Context, w types.Winner) (string, error)
	// ListWinners returns winners newest first.
	ListWinners(ctx context.Context) ([]types.Winner, error)
	UpdateWinner(ctx context.Context, id string, w types.Winner) error
	DeleteWinner(ctx context.Context, id string) error
}

// Store is the full record store the service runs against.
type Store interface {
	EntryStore
	RestrictionStore
	GiveawayStore
	WinnerStore
	Close() error
}

// NewID returns a time-ordered identifier, so sorting ids sorts by
// creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func sortEntries(entries []types.GiveawayEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

func sortRestrictions(rs []types.IPRestriction) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}

func sortGiveaways(gs []types.Giveaway) {
	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })
}

func sortWinnersNewestFirst(ws []types.Winner) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].ID > ws[j].ID })
}
