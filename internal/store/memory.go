package store

import (
	"context"
	"sync"
	"time"

	"giveaway/internal/types"
)

// MemoryStore keeps every collection in process memory. Used for local runs
// and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	giveaways    map[string]types.Giveaway
	entries      map[string]map[string]types.GiveawayEntry
	restrictions map[string]types.IPRestriction
	winners      map[string]types.Winner
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		giveaways:    make(map[string]types.Giveaway),
		entries:      make(map[string]map[string]types.GiveawayEntry),
		restrictions: make(map[string]types.IPRestriction),
		winners:      make(map[string]types.Winner),
	}
}

func (s *MemoryStore) Close() error { return nil }

// ---------- Entries ----------

func (s *MemoryStore) ListEntries(_ context.Context, giveawayID string) ([]types.GiveawayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.GiveawayEntry, 0, len(s.entries[giveawayID]))
	for _, e := range s.entries[giveawayID] {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *MemoryStore) ListAllEntries(_ context.Context) (map[string][]types.GiveawayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]types.GiveawayEntry, len(s.entries))
	for gid, byID := range s.entries {
		list := make([]types.GiveawayEntry, 0, len(byID))
		for _, e := range byID {
			list = append(list, e)
		}
		sortEntries(list)
		out[gid] = list
	}
	return out, nil
}

func (s *MemoryStore) AppendEntry(_ context.Context, giveawayID string, entry types.GiveawayEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = NewID()
	entry.GiveawayID = giveawayID
	if s.entries[giveawayID] == nil {
		s.entries[giveawayID] = make(map[string]types.GiveawayEntry)
	}
	s.entries[giveawayID][entry.ID] = entry
	return entry.ID, nil
}

func (s *MemoryStore) DeleteEntry(_ context.Context, giveawayID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[giveawayID][entryID]; !ok {
		return ErrNotFound
	}
	delete(s.entries[giveawayID], entryID)
	return nil
}

// ---------- Restrictions ----------

func (s *MemoryStore) ListRestrictionsForIP(_ context.Context, ip string) ([]types.IPRestriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.IPRestriction
	for _, r := range s.restrictions {
		if r.IPAddress == ip {
			out = append(out, r)
		}
	}
	sortRestrictions(out)
	return out, nil
}

func (s *MemoryStore) ListRestrictions(_ context.Context) ([]types.IPRestriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.IPRestriction, 0, len(s.restrictions))
	for _, r := range s.restrictions {
		out = append(out, r)
	}
	sortRestrictions(out)
	return out, nil
}

func (s *MemoryStore) AppendRestriction(_ context.Context, r types.IPRestriction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = NewID()
	s.restrictions[r.ID] = r
	return r.ID, nil
}

func (s *MemoryStore) DeleteRestriction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.restrictions[id]; !ok {
		return ErrNotFound
	}
	delete(s.restrictions, id)
	return nil
}

// ---------- Giveaways ----------

func (s *MemoryStore) CreateGiveaway(_ context.Context, g types.Giveaway) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = NewID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	s.giveaways[g.ID] = g
	return g.ID, nil
}

func (s *MemoryStore) GetGiveaway(_ context.Context, id string) (*types.Giveaway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.giveaways[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (s *MemoryStore) ListGiveaways(_ context.Context) ([]types.Giveaway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Giveaway, 0, len(s.giveaways))
	for _, g := range s.giveaways {
		out = append(out, g)
	}
	sortGiveaways(out)
	return out, nil
}

func (s *MemoryStore) UpdateGiveaway(_ context.Context, id string, patch types.GiveawayPatch) (*types.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.giveaways[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&g)
	s.giveaways[id] = g
	return &g, nil
}

func (s *MemoryStore) DeleteGiveaway(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.giveaways[id]; !ok {
		return ErrNotFound
	}
	delete(s.giveaways, id)
	delete(s.entries, id)
	return nil
}

// ---------- Winners ----------

func (s *MemoryStore) CreateWinner(_ context.Context, w types.Winner) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.ID = NewID()
	s.winners[w.ID] = w
	return w.ID, nil
}

func (s *MemoryStore) ListWinners(_ context.Context) ([]types.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Winner, 0, len(s.winners))
	for _, w := range s.winners {
		out = append(out, w)
	}
	sortWinnersNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) UpdateWinner(_ context.Context, id string, w types.Winner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.winners[id]; !ok {
		return ErrNotFound
	}
	w.ID = id
	s.winners[id] = w
	return nil
}

func (s *MemoryStore) DeleteWinner(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.winners[id]; !ok {
		return ErrNotFound
	}
	delete(s.winners, id)
	return nil
}
