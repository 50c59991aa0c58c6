package store

import (
	"database/sql"
	"time"
)

// Dispatch sources.
const (
	SourceGesture  = "gesture"
	SourcePresence = "presence"
)

// Dispatch records one action handed to the executor.
type Dispatch struct {
	ID        string
	SessionID string
	Gesture   string
	Source    string
	Success   bool
	Error     string
	CreatedAt time.Time
}

// DispatchRepository provides access to dispatch records.
type DispatchRepository struct {
	db *sql.DB
}

// Dispatches returns the dispatch repository for this store.
func (s *Store) Dispatches() *DispatchRepository {
	return &DispatchRepository{db: s.db}
}

// Create inserts a dispatch record. CreatedAt defaults to now.
func (r *DispatchRepository) Create(d *Dispatch) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO dispatches (id, session_id, gesture, source, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Gesture, d.Source, d.Success, d.Error, d.CreatedAt,
	)
	return err
}

// ListBySession returns a session's dispatches in the order they happened.
func (r *DispatchRepository) ListBySession(sessionID string) ([]*Dispatch, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, gesture, source, success, error, created_at
		 FROM dispatches WHERE session_id = ? ORDER BY created_at, rowid`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []*Dispatch
	for rows.Next() {
		d := &Dispatch{}
		var success int

		if err := rows.Scan(&d.ID, &d.SessionID, &d.Gesture, &d.Source, &success, &d.Error, &d.CreatedAt); err != nil {
			return nil, err
		}

		d.Success = success != 0
		dispatches = append(dispatches, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dispatches, nil
}

// CountBySession returns the number of successful and failed dispatches in a session.
func (r *DispatchRepository) CountBySession(sessionID string) (ok, failed int, err error) {
	err = r.db.QueryRow(
		`SELECT COALESCE(SUM(success), 0), COALESCE(SUM(1 - success), 0)
		 FROM dispatches WHERE session_id = ?`,
		sessionID,
	).Scan(&ok, &failed)
	return ok, failed, err
}
