package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the hands and face presence found in it.
	// An observation with no hands is not an error.
	Detect(frame *gocv.Mat) (*Observation, error)
	// Close releases any resources held by the detector.
	Close() error
}

// FaceDetector reports whether at least one face is visible in a frame.
type FaceDetector interface {
	FacePresent(frame *gocv.Mat) (bool, error)
	Close() error
}

// Config holds configuration options for hand and face detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int
	// MinConfidence is the minimum hand detection confidence threshold (0.0-1.0).
	MinConfidence float64
	// MinTrackingConf is the minimum hand tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
	// FaceConfidence is the minimum face detection confidence threshold (0.0-1.0).
	FaceConfidence float64
	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string
}

// DefaultConfig returns a Config tuned for media control at arm's length.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.85,
		MinTrackingConf: 0.7,
		FaceConfidence:  0.6,
	}
}
