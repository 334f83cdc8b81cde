package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"giveaway/internal/types"
)

const (
	keyGiveaways    = "giveaway:giveaways"
	keyRestrictions = "giveaway:restrictions"
	keyWinners      = "giveaway:winners"
)

func entriesKey(giveawayID string) string { return "giveaway:entries:" + giveawayID }
func ipIndexKey(ip string) string          { return "giveaway:restrictions:ip:" + ip }

// RedisStore keeps each collection in a hash of JSON documents. Restrictions
// are additionally indexed by IP in a set so a lookup does not scan the log.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying connection so the rate limiter and the
// admission locker can share it.
func (s *RedisStore) Client() *redis.Client { return s.client }

func (s *RedisStore) Close() error { return s.client.Close() }

func putJSON(ctx context.Context, p redis.Pipeliner, key, field string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.HSet(ctx, key, field, data).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key, field string, v interface{}) error {
	raw, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

func decodeAll[T any](values map[string]string) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, raw := range values {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------- Entries ----------

func (s *RedisStore) ListEntries(ctx context.Context, giveawayID string) ([]types.GiveawayEntry, error) {
	values, err := s.client.HGetAll(ctx, entriesKey(giveawayID)).Result()
	if err != nil {
		return nil, err
	}
	entries, err := decodeAll[types.GiveawayEntry](values)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (s *RedisStore) ListAllEntries(ctx context.Context) (map[string][]types.GiveawayEntry, error) {
	out := make(map[string][]types.GiveawayEntry)
	iter := s.client.Scan(ctx, 0, entriesKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		gid := iter.Val()[len(entriesKey("")):]
		entries, err := s.ListEntries(ctx, gid)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			out[gid] = entries
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) AppendEntry(ctx context.Context, giveawayID string, entry types.GiveawayEntry) (string, error) {
	entry.ID = NewID()
	entry.GiveawayID = giveawayID
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	if err := s.client.HSet(ctx, entriesKey(giveawayID), entry.ID, data).Err(); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *RedisStore) DeleteEntry(ctx context.Context, giveawayID, entryID string) error {
	n, err := s.client.HDel(ctx, entriesKey(giveawayID), entryID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- Restrictions ----------

func (s *RedisStore) ListRestrictionsForIP(ctx context.Context, ip string) ([]types.IPRestriction, error) {
	ids, err := s.client.SMembers(ctx, ipIndexKey(ip)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := s.client.HMGet(ctx, keyRestrictions, ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.IPRestriction, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index points at a record removed outside DeleteRestriction
			continue
		}
		var r types.IPRestriction
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortRestrictions(out)
	return out, nil
}

func (s *RedisStore) ListRestrictions(ctx context.Context) ([]types.IPRestriction, error) {
	values, err := s.client.HGetAll(ctx, keyRestrictions).Result()
	if err != nil {
		return nil, err
	}
	out, err := decodeAll[types.IPRestriction](values)
	if err != nil {
		return nil, err
	}
	sortRestrictions(out)
	return out, nil
}

func (s *RedisStore) AppendRestriction(ctx context.Context, r types.IPRestriction) (string, error) {
	r.ID = NewID()
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := putJSON(ctx, p, keyRestrictions, r.ID, r); err != nil {
			return err
		}
		return p.SAdd(ctx, ipIndexKey(r.IPAddress), r.ID).Err()
	})
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *RedisStore) DeleteRestriction(ctx context.Context, id string) error {
	var r types.IPRestriction
	if err := s.getJSON(ctx, keyRestrictions, id, &r); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, keyRestrictions, id)
		p.SRem(ctx, ipIndexKey(r.IPAddress), id)
		return nil
	})
	return err
}

// ---------- Giveaways ----------

func (s *RedisStore) CreateGiveaway(ctx context.Context, g types.Giveaway) (string, error) {
	g.ID = NewID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	if err := s.client.HSet(ctx, keyGiveaways, g.ID, data).Err(); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (s *RedisStore) GetGiveaway(ctx context.Context, id string) (*types.Giveaway, error) {
	var g types.Giveaway
	if err := s.getJSON(ctx, keyGiveaways, id, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *RedisStore) ListGiveaways(ctx context.Context) ([]types.Giveaway, error) {
	values, err := s.client.HGetAll(ctx, keyGiveaways).Result()
	if err != nil {
		return nil, err
	}
	out, err := decodeAll[types.Giveaway](values)
	if err != nil {
		return nil, err
	}
	sortGiveaways(out)
	return out, nil
}

func (s *RedisStore) UpdateGiveaway(ctx context.Context, id string, patch types.GiveawayPatch) (*types.Giveaway, error) {
	g, err := s.GetGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(g)
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	if err := s.client.HSet(ctx, keyGiveaways, id, data).Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *RedisStore) DeleteGiveaway(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.HDel(ctx, keyGiveaways, id)
		p.Del(ctx, entriesKey(id))
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- Winners ----------

func (s *RedisStore) CreateWinner(ctx context.Context, w types.Winner) (string, error) {
	w.ID = NewID()
	data, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	if err := s.client.HSet(ctx, keyWinners, w.ID, data).Err(); err != nil {
		return "", err
	}
	return w.ID, nil
}

func (s *RedisStore) ListWinners(ctx context.Context) ([]types.Winner, error) {
	values, err := s.client.HGetAll(ctx, keyWinners).Result()
	if err != nil {
		return nil, err
	}
	out, err := decodeAll[types.Winner](values)
	if err != nil {
		return nil, err
	}
	sortWinnersNewestFirst(out)
	return out, nil
}

func (s *RedisStore) UpdateWinner(ctx context.Context, id string, w types.Winner) error {
	exists, err := s.client.HExists(ctx, keyWinners, id).Result()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	w.ID = id
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, keyWinners, id, data).Err()
}

func (s *RedisStore) DeleteWinner(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, keyWinners, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
