package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is the journal record of one controller run.
type Session struct {
	ID               string
	Mode             string
	ConfirmThreshold int
	Cooldown         time.Duration
	StartedAt        time.Time
	EndedAt          *time.Time
	EndReason        string
}

// Active reports whether the session has not been closed yet.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionRepository provides access to session records.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, confirm_threshold, cooldown_ms, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Mode, sess.ConfirmThreshold, sess.Cooldown.Milliseconds(), sess.StartedAt,
	)
	return err
}

// End marks a session finished with the given reason.
func (r *SessionRepository) End(id string, endedAt time.Time, reason string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ? AND ended_at IS NULL`,
		endedAt, reason, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

const sessionColumns = `id, mode, confirm_threshold, cooldown_ms, started_at, ended_at, end_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var cooldownMs int64
	var endedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.Mode, &sess.ConfirmThreshold, &cooldownMs, &sess.StartedAt, &endedAt, &sess.EndReason)
	if err != nil {
		return nil, err
	}

	sess.Cooldown = time.Duration(cooldownMs) * time.Millisecond
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first, at most limit of them.
// A limit of zero or less returns all sessions.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// CloseDangling ends every session left open by a crashed process.
func (r *SessionRepository) CloseDangling(now time.Time) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, end_reason = 'abandoned' WHERE ended_at IS NULL`, now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
