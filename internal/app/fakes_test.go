package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// scriptedSource replays observations, then reports end of stream, or blocks
// until cancelled when hold is set.
type scriptedSource struct {
	mu      sync.Mutex
	frames  []*detector.Observation
	hold    bool
	waiting bool
	opened  int
	closed  int
	reads   int
	openErr error
	readErr error
}

func newScriptedSource(frames ...*detector.Observation) *scriptedSource {
	return &scriptedSource{frames: frames}
}

func (s *scriptedSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened++
	return nil
}

func (s *scriptedSource) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *scriptedSource) Next(ctx context.Context) (*detector.Observation, error) {
	s.mu.Lock()
	if s.readErr != nil && s.reads == len(s.frames) {
		s.mu.Unlock()
		return nil, s.readErr
	}
	if s.reads < len(s.frames) {
		obs := s.frames[s.reads]
		s.reads++
		s.mu.Unlock()
		return obs, nil
	}
	hold := s.hold
	s.waiting = hold
	s.mu.Unlock()

	if hold {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, capture.ErrEndOfStream
}

// drained reports whether every scripted frame has been read and processed.
func (s *scriptedSource) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads == len(s.frames) && s.waiting
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *scriptedSource) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// recordingExecutor remembers every action it is asked to perform.
type recordingExecutor struct {
	mu      sync.Mutex
	actions []gesture.Action
	fail    map[int]bool
}

var errExecutor = errors.New("keystroke rejected")

func (e *recordingExecutor) Dispatch(_ context.Context, a gesture.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.actions = append(e.actions, a)
	if e.fail[len(e.actions)] {
		return errExecutor
	}
	return nil
}

func (e *recordingExecutor) Actions() []gesture.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]gesture.Action(nil), e.actions...)
}

// eventLog collects published events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// manualClock advances only when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func handFrame(up [5]bool) *detector.Observation {
	return &detector.Observation{
		Hands:       []detector.HandLandmarks{detector.PoseLandmarks(up)},
		FacePresent: true,
	}
}

func repeat(obs *detector.Observation, n int) []*detector.Observation {
	frames := make([]*detector.Observation, n)
	for i := range frames {
		frames[i] = obs
	}
	return frames
}

var (
	openPalm = [5]bool{true, true, true, true, true}
	volumeUp = [5]bool{true, true, false, false, true}
	forward  = [5]bool{false, true, false, false, false}
	nextVid  = [5]bool{false, true, true, false, false}
	fist     = [5]bool{}
)
