// Package sqlite persists event snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/calpoll/calpoll/internal/event"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    finalized  INTEGER,
    next_index INTEGER NOT NULL,
    invitees   TEXT NOT NULL,
    responses  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS proposals (
    event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    idx        INTEGER NOT NULL,
    start_ms   INTEGER NOT NULL,
    timezone   TEXT NOT NULL,
    accepted   TEXT NOT NULL,
    PRIMARY KEY (event_id, idx)
);
`

// Store persists event snapshots. Removed proposal slots are absent
// rows; next_index keeps the never-reused index horizon.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveEvent upserts one snapshot, replacing its proposal rows.
func (s *Store) SaveEvent(ctx context.Context, snap event.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(snap.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	invitees, err := json.Marshal(snap.Invitees)
	if err != nil {
		return fmt.Errorf("marshal invitees: %w", err)
	}
	responses, err := json.Marshal(snap.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finalized sql.NullInt64
	if snap.Finalized != nil {
		finalized = sql.NullInt64{Int64: int64(*snap.Finalized), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, name, finalized, next_index, invitees, responses)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   finalized = excluded.finalized,
		   next_index = excluded.next_index,
		   invitees = excluded.invitees,
		   responses = excluded.responses`,
		snap.ID, snap.Name, finalized, len(snap.Proposals), string(invitees), string(responses))
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM proposals WHERE event_id = ?`, snap.ID); err != nil {
		return fmt.Errorf("clear proposals: %w", err)
	}
	for idx, ps := range snap.Proposals {
		if ps == nil {
			continue
		}
		accepted, err := json.Marshal(ps.Accepted)
		if err != nil {
			return fmt.Errorf("marshal accepted: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO proposals (event_id, idx, start_ms, timezone, accepted)
			 VALUES (?, ?, ?, ?, ?)`,
			snap.ID, idx, ps.When.UTC().UnixMilli(), ps.Timezone, string(accepted))
		if err != nil {
			return fmt.Errorf("insert proposal %d: %w", idx, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteEvent drops one event and its proposal rows.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM proposals WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("delete proposals: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// LoadAll reads every stored snapshot.
func (s *Store) LoadAll(ctx context.Context) ([]event.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, finalized, next_index, invitees, responses FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var snaps []event.Snapshot
	for rows.Next() {
		var (
			snap          event.Snapshot
			finalized     sql.NullInt64
			nextIndex     int
			inviteesJSON  string
			responsesJSON string
		)
		if err := rows.Scan(&snap.ID, &snap.Name, &finalized, &nextIndex, &inviteesJSON, &responsesJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if finalized.Valid {
			idx := int(finalized.Int64)
			snap.Finalized = &idx
		}
		if err := json.Unmarshal([]byte(inviteesJSON), &snap.Invitees); err != nil {
			return nil, fmt.Errorf("unmarshal invitees for %s: %w", snap.ID, err)
		}
		if err := json.Unmarshal([]byte(responsesJSON), &snap.Responses); err != nil {
			return nil, fmt.Errorf("unmarshal responses for %s: %w", snap.ID, err)
		}
		snap.Proposals = make([]*event.ProposalSnapshot, nextIndex)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	for i := range snaps {
		if err := s.loadProposals(ctx, &snaps[i]); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}

func (s *Store) loadProposals(ctx context.Context, snap *event.Snapshot) error {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT idx, start_ms, timezone, accepted FROM proposals WHERE event_id = ? ORDER BY idx`, snap.ID)
	if err != nil {
		return fmt.Errorf("query proposals for %s: %w", snap.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx          int
			startMS      int64
			timezone     string
			acceptedJSON string
		)
		if err := rows.Scan(&idx, &startMS, &timezone, &acceptedJSON); err != nil {
			return fmt.Errorf("scan proposal for %s: %w", snap.ID, err)
		}
		if idx < 0 || idx >= len(snap.Proposals) {
			return fmt.Errorf("proposal index %d out of range for %s", idx, snap.ID)
		}
		ps := &event.ProposalSnapshot{
			When:     time.UnixMilli(startMS).UTC(),
			Timezone: timezone,
		}
		if err := json.Unmarshal([]byte(acceptedJSON), &ps.Accepted); err != nil {
			return fmt.Errorf("unmarshal accepted for %s: %w", snap.ID, err)
		}
		snap.Proposals[idx] = ps
	}
	return rows.Err()
}
