// Package tray provides the system tray launcher for mudra sessions.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

// Controller is the part of app.Controller the tray drives.
type Controller interface {
	Start(mode gesture.Mode) (app.SessionInfo, error)
	Stop(mode gesture.Mode) error
	StopAll()
	IsRunning(mode gesture.Mode) bool
}

// Tray represents the system tray application. Each mode has a menu item
// that starts its session, or stops it when already running.
type Tray struct {
	ctrl   Controller
	log    logrus.FieldLogger
	onQuit func()
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuModes      map[gesture.Mode]*systray.MenuItem
	titles         map[gesture.Mode]string
	menuStop       *systray.MenuItem
	menuLastAction *systray.MenuItem
	lastAction     string
}

// New creates a Tray driving ctrl.
func New(ctrl Controller, log logrus.FieldLogger) *Tray {
	return &Tray{
		ctrl:      ctrl,
		log:       log,
		menuModes: make(map[gesture.Mode]*systray.MenuItem),
		titles:    make(map[gesture.Mode]string),
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called. It must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture media control")

	t.mu.Lock()
	youtube := systray.AddMenuItem(modeTitle(gesture.ModeYoutube, false), "Control YouTube with hand gestures")
	ott := systray.AddMenuItem(modeTitle(gesture.ModeOtt, false), "Control OTT players with hand gestures")
	t.menuModes[gesture.ModeYoutube] = youtube
	t.menuModes[gesture.ModeOtt] = ott
	t.menuStop = systray.AddMenuItem("Stop All", "Stop every running session")
	systray.AddSeparator()

	t.menuLastAction = systray.AddMenuItem(lastTitle(t.lastAction), "Last action sent")
	t.menuLastAction.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	t.refresh()

	go func() {
		for {
			select {
			case <-youtube.ClickedCh:
				t.handleToggle(gesture.ModeYoutube)
			case <-ott.ClickedCh:
				t.handleToggle(gesture.ModeOtt)
			case <-t.menuStop.ClickedCh:
				t.handleStopAll()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.ctrl.StopAll()
}

// handleToggle starts mode's session, or stops it if it is running.
func (t *Tray) handleToggle(mode gesture.Mode) {
	log := t.log.WithField("mode", mode)
	if t.ctrl.IsRunning(mode) {
		if err := t.ctrl.Stop(mode); err != nil {
			log.WithError(err).Warn("Failed to stop session")
		}
	} else if _, err := t.ctrl.Start(mode); err != nil {
		log.WithError(err).Error("Failed to start session")
	}
	t.refresh()
}

func (t *Tray) handleStopAll() {
	t.ctrl.StopAll()
	t.refresh()
}

// handleQuit stops all sessions, runs the quit callback and closes the tray.
func (t *Tray) handleQuit() {
	t.ctrl.StopAll()

	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish implements app.Publisher, keeping the menu in step with sessions
// started or ended elsewhere (HTTP API, end of stream). Titles follow the
// event itself: an ended session is still registered with the controller
// while its end event is delivered.
func (t *Tray) Publish(e app.Event) {
	switch e.Type {
	case app.EventDispatch:
		if e.Success {
			t.SetLastAction(e.Mode.Title() + ": " + e.Action)
		}
	case app.EventSessionStarted:
		t.setRunning(e.Mode, true)
	case app.EventSessionEnded:
		t.setRunning(e.Mode, false)
	}
}

// SetLastAction updates the last action display in the menu.
func (t *Tray) SetLastAction(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = name
	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastTitle(name))
	}
}

// LastAction returns the text shown in the last action item.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAction
}

// ModeTitle returns the text of mode's menu item.
func (t *Tray) ModeTitle(mode gesture.Mode) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if title, ok := t.titles[mode]; ok {
		return title
	}
	return modeTitle(mode, false)
}

// refresh retitles the mode items from the controller's state.
func (t *Tray) refresh() {
	for _, mode := range gesture.Modes {
		t.setRunning(mode, t.ctrl.IsRunning(mode))
	}
}

func (t *Tray) setRunning(mode gesture.Mode, running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	title := modeTitle(mode, running)
	t.titles[mode] = title
	if item, ok := t.menuModes[mode]; ok {
		item.SetTitle(title)
	}
}

func modeTitle(mode gesture.Mode, running bool) string {
	if running {
		return "● Stop " + mode.Title()
	}
	return "○ Start " + mode.Title()
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
