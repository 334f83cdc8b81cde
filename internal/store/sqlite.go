package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"giveaway/internal/types"
)

//go:embed schema.sql
var embeddedSchema embed.FS

// Timestamps are stored as RFC 3339 text in UTC.
const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path and
// applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := NewSQLiteStore(db)
	if err := s.InitSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) InitSchema() error {
	b, err := embeddedSchema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.db.Exec(strings.TrimSpace(string(b)))
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) (time.Time, error) { return time.Parse(timeLayout, v) }

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------- Entries ----------

const entryColumns = `id, giveaway_id, name, location, phone_number, email, submitted_at, ip_address`

func scanEntries(rows *sql.Rows) ([]types.GiveawayEntry, error) {
	defer rows.Close()

	var entries []types.GiveawayEntry
	for rows.Next() {
		var e types.GiveawayEntry
		var submitted string
		if err := rows.Scan(&e.ID, &e.GiveawayID, &e.Name, &e.Location, &e.PhoneNumber, &e.Email, &submitted, &e.IPAddress); err != nil {
			return nil, err
		}
		t, err := parseTime(submitted)
		if err != nil {
			return nil, err
		}
		e.SubmittedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, giveawayID string) ([]types.GiveawayEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE giveaway_id = ? ORDER BY id`, giveawayID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (s *SQLiteStore) ListAllEntries(ctx context.Context) (map[string][]types.GiveawayEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY giveaway_id, id`)
	if err != nil {
		return nil, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]types.GiveawayEntry)
	for _, e := range entries {
		out[e.GiveawayID] = append(out[e.GiveawayID], e)
	}
	return out, nil
}

func (s *SQLiteStore) AppendEntry(ctx context.Context, giveawayID string, entry types.GiveawayEntry) (string, error) {
	entry.ID = NewID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO entries(id, giveaway_id, name, location, phone_number, email, submitted_at, ip_address)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, entry.ID, giveawayID, entry.Name, entry.Location, entry.PhoneNumber, entry.Email, formatTime(entry.SubmittedAt), entry.IPAddress)
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, giveawayID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ? AND giveaway_id = ?`, entryID, giveawayID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// ---------- Restrictions ----------

func scanRestrictions(rows *sql.Rows) ([]types.IPRestriction, error) {
	defer rows.Close()

	var out []types.IPRestriction
	for rows.Next() {
		var r types.IPRestriction
		var last string
		if err := rows.Scan(&r.ID, &r.IPAddress, &r.GiveawayID, &last, &r.IsBlocked); err != nil {
			return nil, err
		}
		t, err := parseTime(last)
		if err != nil {
			return nil, err
		}
		r.LastEntryDate = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) ListRestrictionsForIP(ctx context.Context, ip string) ([]types.IPRestriction, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ip_address, giveaway_id, last_entry_date, is_blocked
FROM ip_restrictions
WHERE ip_address = ?
ORDER BY id
`, ip)
	if err != nil {
		return nil, err
	}
	return scanRestrictions(rows)
}

func (s *SQLiteStore) ListRestrictions(ctx context.Context) ([]types.IPRestriction, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ip_address, giveaway_id, last_entry_date, is_blocked
FROM ip_restrictions
ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	return scanRestrictions(rows)
}

func (s *SQLiteStore) AppendRestriction(ctx context.Context, r types.IPRestriction) (string, error) {
	r.ID = NewID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ip_restrictions(id, ip_address, giveaway_id, last_entry_date, is_blocked)
VALUES (?, ?, ?, ?, ?)
`, r.ID, r.IPAddress, r.GiveawayID, formatTime(r.LastEntryDate), r.IsBlocked)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *SQLiteStore) DeleteRestriction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ip_restrictions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// ---------- Giveaways ----------

const giveawayColumns = `id, title, description, max_participants, end_date, created_at, is_active`

func scanGiveaway(scan func(dest ...interface{}) error) (*types.Giveaway, error) {
	var g types.Giveaway
	var end, created string
	if err := scan(&g.ID, &g.Title, &g.Description, &g.MaxParticipants, &end, &created, &g.IsActive); err != nil {
		return nil, err
	}
	var err error
	if g.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *SQLiteStore) CreateGiveaway(ctx context.Context, g types.Giveaway) (string, error) {
	g.ID = NewID()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO giveaways(id, title, description, max_participants, end_date, created_at, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, g.ID, g.Title, g.Description, g.MaxParticipants, formatTime(g.EndDate), formatTime(g.CreatedAt), g.IsActive)
	if err != nil {
		return "", err
	}
	return g.ID, nil
}

func (s *SQLiteStore) GetGiveaway(ctx context.Context, id string) (*types.Giveaway, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+giveawayColumns+` FROM giveaways WHERE id = ?`, id)
	g, err := scanGiveaway(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) ListGiveaways(ctx context.Context) ([]types.Giveaway, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+giveawayColumns+` FROM giveaways ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) UpdateGiveaway(ctx context.Context, id string, patch types.GiveawayPatch) (*types.Giveaway, error) {
	g, err := s.GetGiveaway(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(g)
	_, err = s.db.ExecContext(ctx, `
UPDATE giveaways
SET title = ?, description = ?, max_participants = ?, end_date = ?, is_active = ?
WHERE id = ?
`, g.Title, g.Description, g.MaxParticipants, formatTime(g.EndDate), g.IsActive, id)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *SQLiteStore) DeleteGiveaway(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM giveaways WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := affectedOrNotFound(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE giveaway_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------- Winners ----------

func (s *SQLiteStore) CreateWinner(ctx context.Context, w types.Winner) (string, error) {
	w.ID = NewID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO winners(id, name, giveaway_title, date_won, image_url)
VALUES (?, ?, ?, ?, ?)
`, w.ID, w.Name, w.GiveawayTitle, formatTime(w.DateWon), w.ImageURL)
	if err != nil {
		return "", err
	}
	return w.ID, nil
}

func (s *SQLiteStore) ListWinners(ctx context.Context) ([]types.Winner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, giveaway_title, date_won, image_url FROM winners ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Winner
	for rows.Next() {
		var w types.Winner
		var won string
		if err := rows.Scan(&w.ID, &w.Name, &w.GiveawayTitle, &won, &w.ImageURL); err != nil {
			return nil, err
		}
		if w.DateWon, err = parseTime(won); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) UpdateWinner(ctx context.Context, id string, w types.Winner) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE winners SET name = ?, giveaway_title = ?, date_won = ?, image_url = ?
WHERE id = ?
`, w.Name, w.GiveawayTitle, formatTime(w.DateWon), w.ImageURL, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLiteStore) DeleteWinner(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM winners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
