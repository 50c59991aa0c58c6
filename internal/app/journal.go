package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/store"
)

// Journal records session events in the store. Write errors are logged and
// never reach the session.
type Journal struct {
	store *store.Store
	log   logrus.FieldLogger
}

// NewJournal creates a journal backed by s.
func NewJournal(s *store.Store, log logrus.FieldLogger) *Journal {
	return &Journal{store: s, log: log}
}

// SessionStarted records a new session.
func (j *Journal) SessionStarted(cfg SessionConfig, at time.Time) {
	err := j.store.Sessions().Create(&store.Session{
		ID:               cfg.ID,
		Mode:             string(cfg.Mode),
		ConfirmThreshold: cfg.ConfirmThreshold,
		Cooldown:         cfg.Cooldown,
		StartedAt:        at,
	})
	if err != nil {
		j.log.WithError(err).WithField("session", cfg.ID).Error("Failed to record session start")
	}
}

// Publish records dispatch and session-end events; others are ignored.
func (j *Journal) Publish(e Event) {
	var err error
	switch e.Type {
	case EventDispatch:
		err = j.store.Dispatches().Create(&store.Dispatch{
			ID:        uuid.NewString(),
			SessionID: e.SessionID,
			Gesture:   e.Action,
			Source:    e.Source,
			Success:   e.Success,
			Error:     e.Error,
			CreatedAt: e.Time,
		})
	case EventSessionEnded:
		err = j.store.Sessions().End(e.SessionID, e.Time, e.Reason)
	default:
		return
	}

	if err != nil {
		j.log.WithError(err).WithFields(logrus.Fields{
			"session": e.SessionID,
			"event":   e.Type,
		}).Error("Failed to record event")
	}
}
