// Package countlog persists the per-frame counts of tracking sessions in SQLite
// and renders them as charts.
package countlog

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/viam-modules/cell-tracking/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_counts (
	session_id TEXT NOT NULL,
	frame INTEGER NOT NULL,
	confirmed INTEGER NOT NULL DEFAULT 0,
	candidates INTEGER NOT NULL DEFAULT 0,
	regions INTEGER NOT NULL DEFAULT 0,
	moving INTEGER NOT NULL DEFAULT 0,
	staying INTEGER NOT NULL DEFAULT 0,
	promoted INTEGER NOT NULL DEFAULT 0,
	lost INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, frame),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_frame_counts_session ON frame_counts(session_id);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Session is one tracking session, usually one opened video or camera.
type Session struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// Record is the count summary of one processed frame.
type Record struct {
	Frame      int
	Confirmed  int
	Candidates int
	Regions    int
	Moving     int
	Staying    int
	Promoted   int
	Lost       int
	RecordedAt time.Time
}

// RecordFromResult extracts the counts of a frame result.
func RecordFromResult(res engine.FrameResult, at time.Time) Record {
	return Record{
		Frame:      res.Frame,
		Confirmed:  res.Counts.Total,
		Candidates: res.CandidateCount,
		Regions:    res.RegionCount,
		Moving:     res.Counts.Moving,
		Staying:    res.Counts.Staying,
		Promoted:   len(res.Promoted),
		Lost:       len(res.Lost),
		RecordedAt: at,
	}
}

// Store wraps the SQLite connection holding the count log.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the count log at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open count log %q", path)
	}
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to execute %q", p)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate count log")
	}
	return &Store{db: db}, nil
}

// Close closes the database connection. Calls made after Close return an error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// StartSession registers a session. The session identifier usually comes from
// engine.TrackerState.SessionID.
func (s *Store) StartSession(ctx context.Context, id, source string, at time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{ID: id, Source: source, StartedAt: at.UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, source, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Source, sess.StartedAt)
	if err != nil {
		return Session{}, errors.Wrapf(err, "failed to start session %s", id)
	}
	return sess, nil
}

// Append stores the counts of one frame.
func (s *Store) Append(ctx context.Context, sessionID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frame_counts
			(session_id, frame, confirmed, candidates, regions, moving, staying, promoted, lost, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.Frame, rec.Confirmed, rec.Candidates, rec.Regions,
		rec.Moving, rec.Staying, rec.Promoted, rec.Lost, rec.RecordedAt.UTC())
	if err != nil {
		return errors.Wrapf(err, "failed to log frame %d", rec.Frame)
	}
	return nil
}

// Records returns the frames of a session in frame order.
func (s *Store) Records(ctx context.Context, sessionID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, confirmed, candidates, regions, moving, staying, promoted, lost, recorded_at
		FROM frame_counts WHERE session_id = ? ORDER BY frame`, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query session %s", sessionID)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Frame, &rec.Confirmed, &rec.Candidates, &rec.Regions,
			&rec.Moving, &rec.Staying, &rec.Promoted, &rec.Lost, &rec.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan frame counts")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sessions returns every known session, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, started_at FROM sessions ORDER BY started_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Source, &sess.StartedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
