package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	script   []*Observation
	fallback *Observation
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector that reports a visible face and no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{
		fallback: &Observation{FacePresent: true},
	}
}

// SetHands sets the hands returned by every Detect call once the script is exhausted.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &Observation{Hands: hands, FacePresent: m.fallback.FacePresent}
}

// SetFacePresent sets the face flag returned once the script is exhausted.
func (m *MockDetector) SetFacePresent(present bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &Observation{Hands: m.fallback.Hands, FacePresent: present}
}

// Script queues observations returned one per Detect call, in order.
func (m *MockDetector) Script(obs ...*Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, obs...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted observation, the fallback, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		obs := m.script[0]
		m.script = m.script[1:]
		return obs, nil
	}
	return &Observation{Hands: m.fallback.Hands, FacePresent: m.fallback.FacePresent}, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PoseLandmarks builds a synthetic hand in a mirrored frame whose fingers are
// raised according to up, ordered thumb, index, middle, ring, pinky.
// A raised finger has its tip above its reference joint; a raised thumb has its
// tip to the left of the IP joint.
func PoseLandmarks(up [5]bool) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Points:     make([]Point3D, NumLandmarks),
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	// Thumb chain runs out to the left of the palm.
	landmarks.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.70}
	landmarks.Points[ThumbIP] = Point3D{X: 0.35, Y: 0.66}
	if up[0] {
		landmarks.Points[ThumbTip] = Point3D{X: 0.30, Y: 0.63}
	} else {
		landmarks.Points[ThumbTip] = Point3D{X: 0.42, Y: 0.66}
	}

	fingers := []struct {
		mcp int
		x   float64
	}{
		{IndexMCP, 0.45},
		{MiddleMCP, 0.50},
		{RingMCP, 0.55},
		{PinkyMCP, 0.60},
	}

	for i, f := range fingers {
		landmarks.Points[f.mcp] = Point3D{X: f.x, Y: 0.65}
		landmarks.Points[f.mcp+1] = Point3D{X: f.x, Y: 0.55}
		if up[i+1] {
			landmarks.Points[f.mcp+2] = Point3D{X: f.x, Y: 0.45}
			landmarks.Points[f.mcp+3] = Point3D{X: f.x, Y: 0.35}
		} else {
			// Curled back toward the palm, tip below the PIP joint.
			landmarks.Points[f.mcp+2] = Point3D{X: f.x, Y: 0.60, Z: -0.04}
			landmarks.Points[f.mcp+3] = Point3D{X: f.x, Y: 0.63, Z: -0.02}
		}
	}

	return landmarks
}

// OpenPalmLandmarks returns a hand with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks([5]bool{true, true, true, true, true})
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks([5]bool{})
}
