// Package store provides the SQLite persistence backend. Documents are stored
// as JSON alongside the few columns the queries need.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dinehop/dinehop/core/model"
	corestore "github.com/dinehop/dinehop/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS teams (
    event_id TEXT NOT NULL,
    id TEXT NOT NULL,
    doc TEXT NOT NULL,
    PRIMARY KEY (event_id, id)
);
CREATE TABLE IF NOT EXISTS proposals (
    event_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    doc TEXT NOT NULL,
    PRIMARY KEY (event_id, version)
);
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_event ON jobs (event_id, created_at);
CREATE TABLE IF NOT EXISTS constraints (
    event_id TEXT PRIMARY KEY,
    doc TEXT NOT NULL
);`

// SQLiteStore implements store.Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent job updates.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Event(ctx context.Context, id string) (model.Event, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM events WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	var ev model.Event
	if err := json.Unmarshal([]byte(doc), &ev); err != nil {
		return model.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}

func (s *SQLiteStore) PutEvent(ctx context.Context, ev model.Event) error {
	doc, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, doc) VALUES (?, ?)
         ON CONFLICT (id) DO UPDATE SET doc = excluded.doc`,
		ev.ID, string(doc))
	return err
}

func (s *SQLiteStore) SetMatchingStatus(ctx context.Context, eventID string, st model.MatchingStatus) error {
	ev, err := s.Event(ctx, eventID)
	if err != nil {
		return err
	}
	ev.MatchingStatus = st
	return s.PutEvent(ctx, ev)
}

func (s *SQLiteStore) TeamsByEvent(ctx context.Context, eventID string) ([]model.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM teams WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Team
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var t model.Team
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, fmt.Errorf("unmarshal team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PutTeams(ctx context.Context, eventID string, teams []model.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	for _, t := range teams {
		t.EventID = eventID
		doc, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teams (event_id, id, doc) VALUES (?, ?, ?)`,
			eventID, t.ID, string(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Proposals(ctx context.Context, eventID string) ([]model.Proposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM proposals WHERE event_id = ? ORDER BY version DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Proposal
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var p model.Proposal
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("unmarshal proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Proposal(ctx context.Context, eventID string, version int) (model.Proposal, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM proposals WHERE event_id = ? AND version = ?`, eventID, version).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Proposal{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Proposal{}, err
	}
	var p model.Proposal
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return model.Proposal{}, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) SaveProposal(ctx context.Context, p model.Proposal) (model.Proposal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Proposal{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM proposals WHERE event_id = ?`,
		p.EventID).Scan(&next); err != nil {
		return model.Proposal{}, err
	}
	p.Version = next
	doc, err := json.Marshal(p)
	if err != nil {
		return model.Proposal{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO proposals (event_id, version, doc) VALUES (?, ?, ?)`,
		p.EventID, p.Version, string(doc)); err != nil {
		if isUniqueViolation(err) {
			return model.Proposal{}, corestore.ErrConflict
		}
		return model.Proposal{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Proposal{}, err
	}
	return p, nil
}

func (s *SQLiteStore) UpdateProposal(ctx context.Context, p model.Proposal) error {
	current, err := s.Proposal(ctx, p.EventID, p.Version)
	if err != nil {
		return err
	}
	if current.Status == model.ProposalFinalized {
		return corestore.ErrFinalized
	}
	p.Status = current.Status
	p.CreatedAt = current.CreatedAt
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE proposals SET doc = ? WHERE event_id = ? AND version = ?`,
		string(doc), p.EventID, p.Version)
	return err
}

func (s *SQLiteStore) SetProposalStatus(ctx context.Context, eventID string, version int, st model.ProposalStatus) error {
	p, err := s.Proposal(ctx, eventID, version)
	if err != nil {
		return err
	}
	p.Status = st
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE proposals SET doc = ? WHERE event_id = ? AND version = ?`,
		string(doc), eventID, version)
	return err
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job model.MatchingJob) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, event_id, status, created_at, doc) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.EventID, string(job.Status), job.CreatedAt.UnixNano(), string(doc))
	return err
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, job model.MatchingJob) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, doc = ? WHERE id = ?`,
		string(job.Status), string(doc), job.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return corestore.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Job(ctx context.Context, id string) (model.MatchingJob, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM jobs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchingJob{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.MatchingJob{}, err
	}
	var job model.MatchingJob
	if err := json.Unmarshal([]byte(doc), &job); err != nil {
		return model.MatchingJob{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) JobsByEvent(ctx context.Context, eventID string) ([]model.MatchingJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM jobs WHERE event_id = ? ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.MatchingJob
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var job model.MatchingJob
		if err := json.Unmarshal([]byte(doc), &job); err != nil {
			return nil, fmt.Errorf("unmarshal job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ActiveJob(ctx context.Context, eventID string) (model.MatchingJob, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM jobs WHERE event_id = ? AND status IN ('queued', 'running')
         ORDER BY created_at DESC LIMIT 1`, eventID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchingJob{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.MatchingJob{}, err
	}
	var job model.MatchingJob
	if err := json.Unmarshal([]byte(doc), &job); err != nil {
		return model.MatchingJob{}, fmt.Errorf("unmarshal job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) Constraints(ctx context.Context, eventID string) (model.Constraints, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM constraints WHERE event_id = ?`, eventID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Constraints{}, corestore.ErrNotFound
	}
	if err != nil {
		return model.Constraints{}, err
	}
	var c model.Constraints
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return model.Constraints{}, fmt.Errorf("unmarshal constraints: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) SaveConstraints(ctx context.Context, eventID string, c model.Constraints) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO constraints (event_id, doc) VALUES (?, ?)
         ON CONFLICT (event_id) DO UPDATE SET doc = excluded.doc`,
		eventID, string(doc))
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ corestore.Store = (*SQLiteStore)(nil)
