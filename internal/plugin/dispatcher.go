package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/gesture"
)

// KeystrokeAction is the plugin action that presses a key.
const KeystrokeAction = "keystroke"

// Keystroke is a key press with optional modifiers, sent as plugin params.
type Keystroke struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (k Keystroke) String() string {
	s := k.Key
	for _, m := range k.Modifiers {
		s = m + "+" + s
	}
	return s
}

// KeystrokeFor returns the player shortcut for an action.
func KeystrokeFor(a gesture.Action) (Keystroke, bool) {
	switch a.Mode {
	case gesture.ModeYoutube:
		switch a.Label {
		case gesture.LabelVolumeUp:
			return Keystroke{Key: "up"}, true
		case gesture.LabelVolumeDown:
			return Keystroke{Key: "down"}, true
		case gesture.LabelForward:
			return Keystroke{Key: "l"}, true
		case gesture.LabelBackward:
			return Keystroke{Key: "j"}, true
		case gesture.LabelPlayPause:
			return Keystroke{Key: "k"}, true
		case gesture.LabelNextVideo:
			return Keystroke{Key: "n", Modifiers: []string{"shift"}}, true
		case gesture.LabelMuteUnmute:
			return Keystroke{Key: "m"}, true
		case gesture.LabelFullScreen:
			return Keystroke{Key: "f"}, true
		}
	case gesture.ModeOtt:
		switch a.Label {
		case gesture.LabelVolumeUp:
			return Keystroke{Key: "up"}, true
		case gesture.LabelVolumeDown:
			return Keystroke{Key: "down"}, true
		case gesture.LabelForward:
			return Keystroke{Key: "right"}, true
		case gesture.LabelBackward:
			return Keystroke{Key: "left"}, true
		case gesture.LabelPlayPause:
			return Keystroke{Key: "space"}, true
		case gesture.LabelFullScreen:
			return Keystroke{Key: "f11"}, true
		case gesture.LabelExitFullScreen:
			return Keystroke{Key: "escape"}, true
		}
	}
	return Keystroke{}, false
}

// KeyDispatcher performs player actions by sending keystrokes through a plugin.
type KeyDispatcher struct {
	executor *Executor
	plugin   *Plugin
}

// NewKeyDispatcher creates a dispatcher that runs plugin with executor.
func NewKeyDispatcher(executor *Executor, plugin *Plugin) *KeyDispatcher {
	return &KeyDispatcher{executor: executor, plugin: plugin}
}

// Dispatch presses the shortcut bound to a.
func (d *KeyDispatcher) Dispatch(ctx context.Context, a gesture.Action) error {
	key, ok := KeystrokeFor(a)
	if !ok {
		return fmt.Errorf("no key binding for %s", a)
	}

	params, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal keystroke: %w", err)
	}

	resp, err := d.executor.Execute(ctx, d.plugin, &Request{
		Action:  KeystrokeAction,
		Gesture: string(a.Label),
		Params:  params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrPluginFailed, resp.Error)
	}
	return nil
}
