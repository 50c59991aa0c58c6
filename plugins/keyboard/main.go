// Package main provides the keyboard plugin used to drive media players.
// It presses named keys and shortcuts via AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams defines parameters for the keystroke action.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// macKeyCodes holds virtual key codes for keys AppleScript cannot type as text.
var macKeyCodes = map[string]int{
	"up":     126,
	"down":   125,
	"left":   123,
	"right":  124,
	"space":  49,
	"escape": 53,
	"f11":    103,
}

// xdoKeys maps named keys to X keysyms.
var xdoKeys = map[string]string{
	"up":     "Up",
	"down":   "Down",
	"left":   "Left",
	"right":  "Right",
	"space":  "space",
	"escape": "Escape",
	"f11":    "F11",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "keystroke", "shortcut":
		if err := handleKeystroke(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleKeystroke(params json.RawMessage) error {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", buildKeystrokeScript(p.Key, p.Modifiers))
	case "linux":
		return run("xdotool", "key", "--clearmodifiers", buildXdoChord(p.Key, p.Modifiers))
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
// Named keys are sent as key codes, everything else is typed as text.
func buildKeystrokeScript(key string, modifiers []string) string {
	press := fmt.Sprintf("keystroke %q", key)
	if code, ok := macKeyCodes[strings.ToLower(key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	}

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press)
	}

	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, strings.Join(appleModifiers, ", "))
}

// buildXdoChord builds an xdotool key chord such as "shift+n".
func buildXdoChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, mod := range modifiers {
		if m, ok := xdoModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}
	if k, ok := xdoKeys[strings.ToLower(key)]; ok {
		key = k
	}
	return strings.Join(append(parts, key), "+")
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, string(output))
	}
	return nil
}
