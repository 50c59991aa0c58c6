package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// ErrAcquisition wraps any failure to produce an observation. It ends the session.
var ErrAcquisition = errors.New("frame acquisition failed")

// Source yields one observation per frame.
//
// Open acquires the underlying device and is called once before the first
// Next. It returns an error wrapping ErrAcquisition when the device is
// unavailable. Next returns capture.ErrEndOfStream when no frames remain and an error
// wrapping ErrAcquisition when the frame could not be read or analysed.
type Source interface {
	Open() error
	Next(ctx context.Context) (*detector.Observation, error)
	Close() error
}

// CameraSource reads frames from a camera and runs them through a detector.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
}

// NewCameraSource pairs camera and detector. The camera is opened by Open.
func NewCameraSource(camera capture.Camera, d detector.Detector) *CameraSource {
	return &CameraSource{camera: camera, detector: d}
}

// Open opens the camera if it is not already open.
func (s *CameraSource) Open() error {
	if s.camera.IsOpen() {
		return nil
	}
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	return nil
}

// Next reads one frame and returns what the detector found in it.
func (s *CameraSource) Next(ctx context.Context) (*detector.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.Open(); err != nil {
		return nil, err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrEndOfStream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	defer frame.Close()

	obs, err := s.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: detect: %w", ErrAcquisition, err)
	}
	return obs, nil
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	return errors.Join(s.camera.Close(), s.detector.Close())
}
