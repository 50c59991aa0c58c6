package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
)

var (
	// ErrSessionRunning is returned when a mode already has a running session.
	ErrSessionRunning = errors.New("session already running")
	// ErrSessionNotRunning is returned when stopping a mode with no session.
	ErrSessionNotRunning = errors.New("no session running")
)

// Session end reasons.
const (
	ReasonStopped     = "stopped"
	ReasonEndOfStream = "end of stream"
)

// SourceFactory opens the frame source for a new session.
type SourceFactory func(mode gesture.Mode) (Source, error)

// ControllerConfig holds what the controller needs to start sessions.
type ControllerConfig struct {
	ConfirmThreshold int
	Cooldown         time.Duration
	HandLimit        int

	Sources  SourceFactory
	Executor Executor
	// Journal is optional.
	Journal *Journal
	Logger  logrus.FieldLogger
}

// SessionInfo describes a running session.
type SessionInfo struct {
	ID        string       `json:"id"`
	Mode      gesture.Mode `json:"mode"`
	StartedAt time.Time    `json:"started_at"`
}

type runningSession struct {
	info   SessionInfo
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller runs at most one session per mode. Sessions share nothing but
// the executor and the event subscribers.
type Controller struct {
	config ControllerConfig
	log    logrus.FieldLogger

	mu          sync.Mutex
	sessions    map[gesture.Mode]*runningSession
	starting    map[gesture.Mode]struct{}
	subscribers []Publisher
	lastAction  string
}

// NewController creates a controller with no running sessions.
func NewController(config ControllerConfig) *Controller {
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Controller{
		config:   config,
		log:      config.Logger,
		sessions: make(map[gesture.Mode]*runningSession),
		starting: make(map[gesture.Mode]struct{}),
	}
}

// Subscribe registers p to receive every event from every session.
func (c *Controller) Subscribe(p Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, p)
}

// Publish fans an event out to the journal and subscribers.
func (c *Controller) Publish(e Event) {
	c.mu.Lock()
	subs := append([]Publisher(nil), c.subscribers...)
	if e.Type == EventDispatch && e.Success {
		c.lastAction = e.Mode.Title() + ": " + gesture.Label(e.Action).String()
	}
	c.mu.Unlock()

	if c.config.Journal != nil {
		c.config.Journal.Publish(e)
	}
	for _, p := range subs {
		p.Publish(e)
	}
}

// Start opens a source and runs a new session for mode in the background.
// The source is opened before Start returns, so device errors reach the
// caller and no session is registered.
func (c *Controller) Start(mode gesture.Mode) (SessionInfo, error) {
	c.mu.Lock()
	_, running := c.sessions[mode]
	_, starting := c.starting[mode]
	if running || starting {
		c.mu.Unlock()
		return SessionInfo{}, fmt.Errorf("%s: %w", mode, ErrSessionRunning)
	}
	c.starting[mode] = struct{}{}
	c.mu.Unlock()

	source, err := c.openSource(mode)
	if err != nil {
		c.mu.Lock()
		delete(c.starting, mode)
		c.mu.Unlock()
		return SessionInfo{}, err
	}

	cfg := SessionConfig{
		ID:               uuid.NewString(),
		Mode:             mode,
		ConfirmThreshold: c.config.ConfirmThreshold,
		Cooldown:         c.config.Cooldown,
		HandLimit:        c.config.HandLimit,
		Logger:           c.log,
		Publisher:        c,
	}
	session := NewSession(cfg, source, c.config.Executor)

	ctx, cancel := context.WithCancel(context.Background())
	rs := &runningSession{
		info:   SessionInfo{ID: cfg.ID, Mode: mode, StartedAt: time.Now()},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	delete(c.starting, mode)
	c.sessions[mode] = rs
	subs := append([]Publisher(nil), c.subscribers...)
	c.mu.Unlock()

	if c.config.Journal != nil {
		c.config.Journal.SessionStarted(cfg, rs.info.StartedAt)
	}
	metricActiveSessions.WithLabelValues(string(mode)).Inc()

	started := Event{Type: EventSessionStarted, SessionID: cfg.ID, Mode: mode, Success: true, Time: rs.info.StartedAt}
	for _, p := range subs {
		p.Publish(started)
	}

	go c.run(ctx, session, rs)

	return rs.info, nil
}

// openSource builds and opens the source for mode. A source that fails to
// open is closed before returning.
func (c *Controller) openSource(mode gesture.Mode) (Source, error) {
	source, err := c.config.Sources(mode)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if err := source.Open(); err != nil {
		if cerr := source.Close(); cerr != nil {
			c.log.WithError(cerr).WithField("mode", mode).Warn("Error closing source")
		}
		return nil, fmt.Errorf("open source: %w", err)
	}
	return source, nil
}

func (c *Controller) run(ctx context.Context, session *Session, rs *runningSession) {
	defer close(rs.done)

	err := c.runSafely(ctx, session)

	reason := ReasonEndOfStream
	switch {
	case err != nil:
		reason = err.Error()
	case ctx.Err() != nil:
		reason = ReasonStopped
	}

	rs.cancel()
	metricActiveSessions.WithLabelValues(string(rs.info.Mode)).Dec()

	// Published before the session leaves the map so Wait sees the journal complete.
	c.Publish(Event{
		Type:      EventSessionEnded,
		SessionID: rs.info.ID,
		Mode:      rs.info.Mode,
		Success:   err == nil,
		Reason:    reason,
		Time:      time.Now(),
	})

	c.mu.Lock()
	if c.sessions[rs.info.Mode] == rs {
		delete(c.sessions, rs.info.Mode)
	}
	c.mu.Unlock()
}

// runSafely turns a panic inside the session into an error. The session has
// already closed its source by the time the panic reaches here.
func (c *Controller) runSafely(ctx context.Context, session *Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("session", session.ID()).Errorf("Session panicked: %v", r)
			err = fmt.Errorf("session panic: %v", r)
		}
	}()
	return session.Run(ctx)
}

// Stop cancels the session for mode and waits for it to release its source.
func (c *Controller) Stop(mode gesture.Mode) error {
	c.mu.Lock()
	rs, ok := c.sessions[mode]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", mode, ErrSessionNotRunning)
	}

	rs.cancel()
	<-rs.done
	return nil
}

// StopAll stops every running session.
func (c *Controller) StopAll() {
	for _, info := range c.Running() {
		if err := c.Stop(info.Mode); err != nil && !errors.Is(err, ErrSessionNotRunning) {
			c.log.WithError(err).Warn("Error stopping session")
		}
	}
}

// Wait blocks until the session for mode has ended. It returns immediately
// when none is running.
func (c *Controller) Wait(mode gesture.Mode) {
	c.mu.Lock()
	rs, ok := c.sessions[mode]
	c.mu.Unlock()

	if ok {
		<-rs.done
	}
}

// Running lists running sessions ordered by mode.
func (c *Controller) Running() []SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]SessionInfo, 0, len(c.sessions))
	for _, rs := range c.sessions {
		infos = append(infos, rs.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Mode < infos[j].Mode })
	return infos
}

// IsRunning reports whether mode has a running session.
func (c *Controller) IsRunning(mode gesture.Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[mode]
	return ok
}

// LastAction describes the most recent successful action, or "".
func (c *Controller) LastAction() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAction
}
