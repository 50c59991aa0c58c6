package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestKeystrokeFor(t *testing.T) {
	tests := []struct {
		mode  gesture.Mode
		label gesture.Label
		want  string
	}{
		{gesture.ModeYoutube, gesture.LabelVolumeUp, "up"},
		{gesture.ModeYoutube, gesture.LabelVolumeDown, "down"},
		{gesture.ModeYoutube, gesture.LabelForward, "l"},
		{gesture.ModeYoutube, gesture.LabelBackward, "j"},
		{gesture.ModeYoutube, gesture.LabelPlayPause, "k"},
		{gesture.ModeYoutube, gesture.LabelNextVideo, "shift+n"},
		{gesture.ModeYoutube, gesture.LabelMuteUnmute, "m"},
		{gesture.ModeYoutube, gesture.LabelFullScreen, "f"},
		{gesture.ModeOtt, gesture.LabelVolumeUp, "up"},
		{gesture.ModeOtt, gesture.LabelVolumeDown, "down"},
		{gesture.ModeOtt, gesture.LabelForward, "right"},
		{gesture.ModeOtt, gesture.LabelBackward, "left"},
		{gesture.ModeOtt, gesture.LabelPlayPause, "space"},
		{gesture.ModeOtt, gesture.LabelFullScreen, "f11"},
		{gesture.ModeOtt, gesture.LabelExitFullScreen, "escape"},
	}

	for _, tt := range tests {
		a := gesture.Action{Mode: tt.mode, Label: tt.label}
		t.Run(a.String(), func(t *testing.T) {
			key, ok := KeystrokeFor(a)
			if !ok {
				t.Fatalf("KeystrokeFor(%v) has no binding", a)
			}
			if key.String() != tt.want {
				t.Errorf("KeystrokeFor(%v) = %q, want %q", a, key.String(), tt.want)
			}
		})
	}
}

// Every action a mode supports must have a key binding, and nothing else may.
func TestKeystrokeFor_MatchesModeVocabulary(t *testing.T) {
	labels := []gesture.Label{
		gesture.LabelVolumeUp, gesture.LabelVolumeDown, gesture.LabelPlayPause,
		gesture.LabelForward, gesture.LabelBackward, gesture.LabelNextVideo,
		gesture.LabelMuteUnmute, gesture.LabelFullScreen, gesture.LabelExitFullScreen,
	}

	for _, mode := range gesture.Modes {
		for _, label := range labels {
			_, bound := KeystrokeFor(gesture.Action{Mode: mode, Label: label})
			if bound != gesture.Supports(mode, label) {
				t.Errorf("%s/%s: bound = %v, supported = %v", mode, label, bound, !bound)
			}
		}
	}
}

func writeScriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "keys.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest:   Manifest{Name: "keys", Executable: "keys.sh", Actions: []string{KeystrokeAction}},
		Path:       dir,
		Executable: path,
	}
}

func TestKeyDispatcher_SendsKeystroke(t *testing.T) {
	plug := writeScriptPlugin(t, `#!/bin/sh
cat > request.json
echo '{"success":true}'
`)

	d := NewKeyDispatcher(NewExecutor(5000), plug)
	if err := d.Dispatch(context.Background(), gesture.Action{Mode: gesture.ModeYoutube, Label: gesture.LabelNextVideo}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(plug.Path, "request.json"))
	if err != nil {
		t.Fatalf("plugin did not record the request: %v", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.Action != KeystrokeAction || req.Gesture != "next_video" {
		t.Errorf("request = %+v, want keystroke for next_video", req)
	}

	var key Keystroke
	if err := json.Unmarshal(req.Params, &key); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if key.Key != "n" || len(key.Modifiers) != 1 || key.Modifiers[0] != "shift" {
		t.Errorf("params = %+v, want shift+n", key)
	}
}

func TestKeyDispatcher_PluginFailure(t *testing.T) {
	plug := writeScriptPlugin(t, `#!/bin/sh
echo '{"success":false,"error":"accessibility permission denied"}'
`)

	d := NewKeyDispatcher(NewExecutor(5000), plug)
	err := d.Dispatch(context.Background(), gesture.Action{Mode: gesture.ModeOtt, Label: gesture.LabelPlayPause})
	if !errors.Is(err, ErrPluginFailed) {
		t.Errorf("Dispatch() error = %v, want ErrPluginFailed", err)
	}
}

func TestKeyDispatcher_UnboundAction(t *testing.T) {
	d := NewKeyDispatcher(NewExecutor(5000), &Plugin{})

	err := d.Dispatch(context.Background(), gesture.Action{Mode: gesture.ModeOtt, Label: gesture.LabelNextVideo})
	if err == nil {
		t.Error("Dispatch() should fail for an action without a key binding")
	}
}
