package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway/internal/types"
)

func newTestSQLiteStore(t *testing.T) Store {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	require.NoError(t, s.InitSchema())
	return s
}

func newTestRedisStore(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client)
}

var backends = []struct {
	name string
	open func(t *testing.T) Store
}{
	{"memory", func(*testing.T) Store { return NewMemoryStore() }},
	{"sqlite", newTestSQLiteStore},
	{"redis", newTestRedisStore},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func entryFrom(ip string) types.GiveawayEntry {
	return types.GiveawayEntry{
		Name:        "Grace",
		Location:    "Arlington",
		PhoneNumber: "555-123-4567",
		Email:       "grace@example.com",
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		IPAddress:   ip,
	}
}

func TestStore_Entries(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		empty, err := s.ListEntries(ctx, "g1")
		require.NoError(t, err)
		assert.Empty(t, empty)

		id1, err := s.AppendEntry(ctx, "g1", entryFrom("1.2.3.4"))
		require.NoError(t, err)
		id2, err := s.AppendEntry(ctx, "g1", entryFrom("5.6.7.8"))
		require.NoError(t, err)
		_, err = s.AppendEntry(ctx, "g2", entryFrom("1.2.3.4"))
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)

		got, err := s.ListEntries(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, id1, got[0].ID)
		assert.Equal(t, "g1", got[0].GiveawayID)
		assert.Equal(t, "1.2.3.4", got[0].IPAddress)
		assert.True(t, got[0].SubmittedAt.Equal(entryFrom("").SubmittedAt))

		all, err := s.ListAllEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, all["g1"], 2)
		assert.Len(t, all["g2"], 1)

		require.NoError(t, s.DeleteEntry(ctx, "g1", id1))
		assert.ErrorIs(t, s.DeleteEntry(ctx, "g1", id1), ErrNotFound)

		got, err = s.ListEntries(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id2, got[0].ID)
	})
}

func TestStore_Restrictions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		none, err := s.ListRestrictionsForIP(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Empty(t, none)

		cooldownID, err := s.AppendRestriction(ctx, types.IPRestriction{IPAddress: "1.2.3.4", GiveawayID: "g1", LastEntryDate: at})
		require.NoError(t, err)
		blockID, err := s.AppendRestriction(ctx, types.IPRestriction{IPAddress: "1.2.3.4", GiveawayID: types.AdminBlockGiveawayID, LastEntryDate: at, IsBlocked: true})
		require.NoError(t, err)
		_, err = s.AppendRestriction(ctx, types.IPRestriction{IPAddress: "9.9.9.9", GiveawayID: "g1", LastEntryDate: at})
		require.NoError(t, err)

		forIP, err := s.ListRestrictionsForIP(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.Len(t, forIP, 2)
		assert.Equal(t, cooldownID, forIP[0].ID)
		assert.False(t, forIP[0].IsBlocked)
		assert.True(t, forIP[0].LastEntryDate.Equal(at))
		assert.Equal(t, blockID, forIP[1].ID)
		assert.True(t, forIP[1].IsBlocked)
		assert.True(t, forIP[1].IsAdminBlock())

		all, err := s.ListRestrictions(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		// removing one record leaves the others for the same IP in place
		require.NoError(t, s.DeleteRestriction(ctx, blockID))
		assert.ErrorIs(t, s.DeleteRestriction(ctx, blockID), ErrNotFound)

		forIP, err = s.ListRestrictionsForIP(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.Len(t, forIP, 1)
		assert.Equal(t, cooldownID, forIP[0].ID)
	})
}

func TestStore_Giveaways(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

		id, err := s.CreateGiveaway(ctx, types.Giveaway{Title: "Console", MaxParticipants: 100, EndDate: end, IsActive: true})
		require.NoError(t, err)

		g, err := s.GetGiveaway(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Console", g.Title)
		assert.Equal(t, 100, g.MaxParticipants)
		assert.True(t, g.EndDate.Equal(end))
		assert.False(t, g.CreatedAt.IsZero())

		_, err = s.GetGiveaway(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		inactive := false
		title := "Console bundle"
		updated, err := s.UpdateGiveaway(ctx, id, types.GiveawayPatch{Title: &title, IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, "Console bundle", updated.Title)
		assert.False(t, updated.IsActive)
		assert.Equal(t, 100, updated.MaxParticipants)

		_, err = s.UpdateGiveaway(ctx, "missing", types.GiveawayPatch{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.AppendEntry(ctx, id, entryFrom("1.2.3.4"))
		require.NoError(t, err)

		list, err := s.ListGiveaways(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		// deleting a giveaway drops its entries as well
		require.NoError(t, s.DeleteGiveaway(ctx, id))
		assert.ErrorIs(t, s.DeleteGiveaway(ctx, id), ErrNotFound)
		entries, err := s.ListEntries(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestStore_Winners(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		won := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

		first, err := s.CreateWinner(ctx, types.Winner{Name: "Alice", GiveawayTitle: "Console", DateWon: won})
		require.NoError(t, err)
		second, err := s.CreateWinner(ctx, types.Winner{Name: "Bob", GiveawayTitle: "Headphones", DateWon: won})
		require.NoError(t, err)

		list, err := s.ListWinners(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second, list[0].ID, "newest first")
		assert.Equal(t, first, list[1].ID)

		require.NoError(t, s.UpdateWinner(ctx, first, types.Winner{Name: "Alicia", GiveawayTitle: "Console", DateWon: won}))
		assert.ErrorIs(t, s.UpdateWinner(ctx, "missing", types.Winner{Name: "X"}), ErrNotFound)

		list, err = s.ListWinners(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", list[1].Name)

		require.NoError(t, s.DeleteWinner(ctx, second))
		assert.ErrorIs(t, s.DeleteWinner(ctx, second), ErrNotFound)
	})
}

func TestNewID_Ordered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestOpenSQLite_DirectoryError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := OpenSQLite(filepath.Join(blocker, "data", "giveaway.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create sqlite directory")
}
