package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// CascadeFaceDetector reports face presence with an OpenCV Haar cascade.
// It is a local alternative to the face flag returned by the MediaPipe service.
type CascadeFaceDetector struct {
	classifier gocv.CascadeClassifier
	minSize    image.Point
	mu         sync.Mutex
}

// NewCascadeFaceDetector loads the cascade XML at path.
func NewCascadeFaceDetector(path string) (*CascadeFaceDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("load face cascade %s", path)
	}

	return &CascadeFaceDetector{
		classifier: classifier,
		minSize:    image.Point{X: 60, Y: 60},
	}, nil
}

// FacePresent reports whether at least one face of a usable size is in the frame.
func (c *CascadeFaceDetector) FacePresent(frame *gocv.Mat) (bool, error) {
	if frame == nil || frame.Empty() {
		return false, fmt.Errorf("empty frame")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	for _, r := range c.classifier.DetectMultiScale(gray) {
		if r.Dx() >= c.minSize.X && r.Dy() >= c.minSize.Y {
			return true, nil
		}
	}
	return false, nil
}

// Close releases the classifier.
func (c *CascadeFaceDetector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}

// faceOverride replaces the face-presence flag of the wrapped detector.
type faceOverride struct {
	Detector
	face FaceDetector
}

// WithFaceDetector returns a Detector whose FacePresent comes from face
// instead of the wrapped detector.
func WithFaceDetector(d Detector, face FaceDetector) Detector {
	if face == nil {
		return d
	}
	return &faceOverride{Detector: d, face: face}
}

func (f *faceOverride) Detect(frame *gocv.Mat) (*Observation, error) {
	obs, err := f.Detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	present, err := f.face.FacePresent(frame)
	if err != nil {
		return nil, fmt.Errorf("detect face: %w", err)
	}
	obs.FacePresent = present

	return obs, nil
}

func (f *faceOverride) Close() error {
	err := f.Detector.Close()
	if ferr := f.face.Close(); err == nil {
		err = ferr
	}
	return err
}
