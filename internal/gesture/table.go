// Package gesture turns hand landmarks into confirmed, rate-limited media commands.
package gesture

import (
	"fmt"
	"strings"
)

// Mode selects the target player and with it the gesture vocabulary and key bindings.
type Mode string

const (
	// ModeYoutube targets the YouTube web player.
	ModeYoutube Mode = "youtube"
	// ModeOtt targets generic OTT players driven by arrow keys and space.
	ModeOtt Mode = "ott"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeYoutube, ModeOtt}

// ParseMode converts a user-supplied name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeYoutube:
		return ModeYoutube, nil
	case ModeOtt:
		return ModeOtt, nil
	}
	return "", fmt.Errorf("unknown mode %q (want youtube or ott)", s)
}

// Title returns the display name of the mode.
func (m Mode) Title() string {
	switch m {
	case ModeYoutube:
		return "YouTube"
	case ModeOtt:
		return "OTT"
	}
	return string(m)
}

// Label identifies a gesture. The zero value is LabelNone.
type Label string

const (
	LabelNone           Label = ""
	LabelVolumeUp       Label = "volume_up"
	LabelVolumeDown     Label = "volume_down"
	LabelPlayPause      Label = "play_pause"
	LabelForward        Label = "forward"
	LabelBackward       Label = "backward"
	LabelNextVideo      Label = "next_video"
	LabelMuteUnmute     Label = "mute_unmute"
	LabelFullScreen     Label = "full_screen"
	LabelExitFullScreen Label = "exit_full_screen"
)

// String returns the label name, or "none".
func (l Label) String() string {
	if l == LabelNone {
		return "none"
	}
	return string(l)
}

// Action is a command for the player in a given mode.
type Action struct {
	Mode  Mode
	Label Label
}

func (a Action) String() string {
	return string(a.Mode) + "/" + a.Label.String()
}

var youtubeTable = map[Posture]Label{
	{true, true, false, false, true}:   LabelVolumeUp,
	{false, true, false, false, true}:  LabelVolumeDown,
	{true, true, true, true, true}:     LabelPlayPause,
	{false, true, false, false, false}: LabelForward,
	{false, false, false, false, true}: LabelBackward,
	{false, true, true, false, false}:  LabelNextVideo,
	{false, true, true, true, false}:   LabelMuteUnmute,
	{true, false, false, false, false}: LabelFullScreen,
}

var ottTable = map[Posture]Label{
	{true, true, false, false, true}:   LabelVolumeUp,
	{false, true, false, false, true}:  LabelVolumeDown,
	{true, true, true, true, true}:     LabelPlayPause,
	{false, true, false, false, false}: LabelForward,
	{false, false, false, false, true}: LabelBackward,
	{true, false, false, false, false}: LabelFullScreen,
}

// Lookup returns the gesture for posture in mode, or LabelNone.
// Only exact matches count.
func Lookup(mode Mode, posture Posture) Label {
	switch mode {
	case ModeYoutube:
		return youtubeTable[posture]
	case ModeOtt:
		return ottTable[posture]
	}
	return LabelNone
}

var (
	youtubeActions = []Label{
		LabelVolumeUp, LabelVolumeDown, LabelPlayPause, LabelForward,
		LabelBackward, LabelNextVideo, LabelMuteUnmute, LabelFullScreen,
	}
	ottActions = []Label{
		LabelVolumeUp, LabelVolumeDown, LabelPlayPause, LabelForward,
		LabelBackward, LabelFullScreen, LabelExitFullScreen,
	}
)

// Actions returns the labels mode can dispatch.
// OTT binds exit_full_screen even though no posture produces it.
func Actions(mode Mode) []Label {
	var src []Label
	switch mode {
	case ModeYoutube:
		src = youtubeActions
	case ModeOtt:
		src = ottActions
	}
	return append([]Label(nil), src...)
}

// Supports reports whether mode has a binding for label.
func Supports(mode Mode, label Label) bool {
	for _, l := range Actions(mode) {
		if l == label {
			return true
		}
	}
	return false
}

// ActionFor maps a confirmed gesture to the action dispatched in mode.
func ActionFor(mode Mode, label Label) (Action, bool) {
	if label == LabelNone || !Supports(mode, label) {
		return Action{}, false
	}
	return Action{Mode: mode, Label: label}, true
}

// PauseAction is the play/pause toggle sent when the viewer leaves the frame.
func PauseAction(mode Mode) Action {
	return Action{Mode: mode, Label: LabelPlayPause}
}
