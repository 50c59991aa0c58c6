package gesture

// FaceMonitor pauses playback once each time the viewer leaves the frame.
type FaceMonitor struct {
	mode      Mode
	wasAbsent bool
}

// NewFaceMonitor creates a monitor that assumes the viewer starts in frame.
func NewFaceMonitor(mode Mode) *FaceMonitor {
	return &FaceMonitor{mode: mode}
}

// Observe records this frame's face presence. It returns the pause action and
// true only on the frame where the face goes from visible to absent.
func (m *FaceMonitor) Observe(facePresent bool) (Action, bool) {
	if facePresent {
		m.wasAbsent = false
		return Action{}, false
	}
	if m.wasAbsent {
		return Action{}, false
	}
	m.wasAbsent = true
	return PauseAction(m.mode), true
}

// Absent reports whether the last observation had no face.
func (m *FaceMonitor) Absent() bool {
	return m.wasAbsent
}
