package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

func TestCameraSource_Next(t *testing.T) {
	cam, release := capture.NewBlankCamera(2)
	defer release()

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	src := NewCameraSource(cam, det)

	for i := 0; i < 2; i++ {
		obs, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() %d error = %v", i, err)
		}
		if len(obs.Hands) != 1 || !obs.FacePresent {
			t.Errorf("Next() %d = %+v", i, obs)
		}
	}

	if _, err := src.Next(context.Background()); !errors.Is(err, capture.ErrEndOfStream) {
		t.Errorf("Next() after last frame error = %v, want ErrEndOfStream", err)
	}
	if det.Calls() != 2 {
		t.Errorf("detector called %d times, want 2", det.Calls())
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if cam.Closes() != 1 || !det.Closed() {
		t.Error("Close() should release camera and detector")
	}
}

func TestCameraSource_OpenFailure(t *testing.T) {
	cam, release := capture.NewBlankCamera(1)
	defer release()
	cam.SetOpenError(errors.New("device busy"))

	src := NewCameraSource(cam, detector.NewMockDetector())
	_, err := src.Next(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("Next() error = %v, want ErrAcquisition", err)
	}
}

func TestCameraSource_DetectFailure(t *testing.T) {
	cam, release := capture.NewBlankCamera(1)
	defer release()

	det := detector.NewMockDetector()
	det.SetError(errors.New("service crashed"))

	src := NewCameraSource(cam, det)
	_, err := src.Next(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("Next() error = %v, want ErrAcquisition", err)
	}
}

func TestCameraSource_Cancelled(t *testing.T) {
	cam, release := capture.NewBlankCamera(1)
	defer release()

	src := NewCameraSource(cam, detector.NewMockDetector())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestSession_RunOverCamera(t *testing.T) {
	cam, release := capture.NewBlankCamera(4)
	defer release()

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	exec := &recordingExecutor{}
	s := newTestSession("youtube", NewCameraSource(cam, det), exec, newManualClock(), nil)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := exec.Actions(); len(got) != 1 || got[0].Label != "play_pause" {
		t.Errorf("dispatched %v, want one play_pause", got)
	}
	if cam.Closes() != 1 || !det.Closed() {
		t.Error("Run() should release the camera and detector")
	}
}
