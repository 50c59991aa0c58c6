// Package app runs controller sessions: it turns a stream of observations into
// debounced, rate-limited player actions and manages sessions per mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
)

// SessionConfig holds the per-session settings.
type SessionConfig struct {
	ID               string
	Mode             gesture.Mode
	ConfirmThreshold int
	Cooldown         time.Duration
	// HandLimit bounds how many detected hands are considered. Only the
	// first is classified; the bound keeps that choice explicit.
	HandLimit int

	Logger    logrus.FieldLogger
	Publisher Publisher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is one controller run for a single mode. It owns all gesture state
// and processes one frame at a time; it is not safe for concurrent use.
type Session struct {
	id        string
	mode      gesture.Mode
	handLimit int

	source   Source
	executor Executor

	face      *gesture.FaceMonitor
	debouncer *gesture.Debouncer
	gate      *gesture.CooldownGate

	log       logrus.FieldLogger
	publisher Publisher
	now       func() time.Time
}

// NewSession creates a session reading from source and acting through executor.
func NewSession(cfg SessionConfig, source Source, executor Executor) *Session {
	if cfg.HandLimit < 1 {
		cfg.HandLimit = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Session{
		id:        cfg.ID,
		mode:      cfg.Mode,
		handLimit: cfg.HandLimit,
		source:    source,
		executor:  executor,
		face:      gesture.NewFaceMonitor(cfg.Mode),
		debouncer: gesture.NewDebouncer(cfg.ConfirmThreshold),
		gate:      gesture.NewCooldownGate(cfg.Cooldown),
		log: cfg.Logger.WithFields(logrus.Fields{
			"session": cfg.ID,
			"mode":    cfg.Mode,
		}),
		publisher: cfg.Publisher,
		now:       cfg.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the mode the session controls.
func (s *Session) Mode() gesture.Mode { return s.mode }

// Run processes frames until ctx is cancelled, the source runs out of frames,
// or a fatal error occurs. Cancellation and end of stream return nil.
// The source is closed on every exit path.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.source.Close(); err != nil {
			s.log.WithError(err).Warn("Error closing frame source")
		}
	}()

	s.log.Info("Session started")

	for {
		if ctx.Err() != nil {
			s.log.Info("Session stopped")
			return nil
		}

		err := s.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, capture.ErrEndOfStream):
			s.log.Info("Frame source ended")
			return nil
		case ctx.Err() != nil:
			s.log.Info("Session stopped")
			return nil
		default:
			s.log.WithError(err).Error("Session failed")
			return err
		}
	}
}

// Step runs one frame cycle. It returns capture.ErrEndOfStream at the end of
// input, an error wrapping ErrAcquisition or gesture.ErrInvalidLandmarkSet on
// fatal failures, and nil otherwise. Executor failures are logged, not returned.
func (s *Session) Step(ctx context.Context) error {
	start := time.Now()
	defer func() { metricFrameSeconds.Observe(time.Since(start).Seconds()) }()

	obs, err := s.source.Next(ctx)
	if err != nil {
		return err
	}
	metricFrames.WithLabelValues(string(s.mode)).Inc()

	if pause, ok := s.face.Observe(obs.FacePresent); ok {
		metricAutoPauses.WithLabelValues(string(s.mode)).Inc()
		s.log.WithField("action", pause.Label).Info("Viewer left the frame, pausing")
		s.report(SourcePresence, pause, s.executor.Dispatch(ctx, pause))
		return nil
	}

	hands := obs.Hands
	if len(hands) == 0 {
		return nil
	}
	if len(hands) > s.handLimit {
		hands = hands[:s.handLimit]
	}

	posture, err := gesture.Classify(&hands[0])
	if err != nil {
		return err
	}

	confirmed := s.debouncer.Observe(gesture.Lookup(s.mode, posture))
	action, ok := gesture.ActionFor(s.mode, confirmed)
	if !ok {
		return nil
	}
	metricConfirmed.WithLabelValues(string(s.mode), string(confirmed)).Inc()

	fired, err := s.gate.TryDispatch(s.now(), action, func(a gesture.Action) error {
		return s.executor.Dispatch(ctx, a)
	})
	if err != nil {
		var failure *gesture.DispatchFailure
		if errors.As(err, &failure) {
			s.report(SourceGesture, action, failure.Err)
			return nil
		}
		return err
	}
	if !fired {
		metricCooldownRejections.WithLabelValues(string(s.mode)).Inc()
		s.log.WithFields(logrus.Fields{
			"gesture":   confirmed,
			"remaining": s.gate.Remaining(s.now()),
		}).Debug("Gesture dropped by cooldown")
		return nil
	}

	s.report(SourceGesture, action, nil)
	return nil
}

// report logs, counts and publishes one executor call.
func (s *Session) report(source string, action gesture.Action, err error) {
	event := Event{
		Type:      EventDispatch,
		SessionID: s.id,
		Mode:      s.mode,
		Action:    string(action.Label),
		Source:    source,
		Success:   err == nil,
		Time:      s.now(),
	}

	log := s.log.WithFields(logrus.Fields{"action": action.Label, "source": source})
	if err != nil {
		metricDispatchFailures.WithLabelValues(string(s.mode), source).Inc()
		event.Error = err.Error()
		log.WithError(&gesture.DispatchFailure{Action: action, Err: err}).Warn("Action failed")
	} else {
		metricDispatches.WithLabelValues(string(s.mode), source).Inc()
		log.Info("Action sent")
	}

	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// String describes the session for logs.
func (s *Session) String() string {
	return fmt.Sprintf("%s session %s", s.mode.Title(), s.id)
}
