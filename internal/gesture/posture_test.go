package gesture

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

// syntheticHand places non-thumb tips at tipY with references at refY and the
// thumb tip at thumbX with its reference at thumbRefX.
func syntheticHand(tipY, refY, thumbX, thumbRefX float64) *detector.HandLandmarks {
	hand := &detector.HandLandmarks{Points: make([]detector.Point3D, detector.NumLandmarks)}
	hand.Points[detector.ThumbTip].X = thumbX
	hand.Points[detector.ThumbIP].X = thumbRefX
	for _, tip := range []int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip} {
		hand.Points[tip].Y = tipY
		hand.Points[tip-2].Y = refY
	}
	return hand
}

func TestClassify_AllExtended(t *testing.T) {
	hand := syntheticHand(0.1, 0.5, 0.1, 0.5)

	got, err := Classify(hand)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	want := Posture{true, true, true, true, true}
	if got != want {
		t.Errorf("Classify() = %v, want %v", got, want)
	}
}

func TestClassify_AllCurled(t *testing.T) {
	hand := syntheticHand(0.5, 0.1, 0.5, 0.1)

	got, err := Classify(hand)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != (Posture{}) {
		t.Errorf("Classify() = %v, want all curled", got)
	}
}

func TestClassify_EqualCoordinatesCountAsCurled(t *testing.T) {
	hand := syntheticHand(0.3, 0.3, 0.3, 0.3)

	got, err := Classify(hand)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != (Posture{}) {
		t.Errorf("Classify() = %v, want all curled", got)
	}
}

func TestClassify_PoseLandmarks(t *testing.T) {
	tests := []Posture{
		{true, true, false, false, true},
		{false, true, false, false, true},
		{false, true, true, true, false},
		{true, false, false, false, false},
		{false, false, false, false, true},
	}

	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			hand := detector.PoseLandmarks(want)

			got, err := Classify(&hand)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != want {
				t.Errorf("Classify() = %v, want %v", got, want)
			}
		})
	}
}

func TestClassify_InvalidLandmarkSet(t *testing.T) {
	tests := []struct {
		name string
		hand *detector.HandLandmarks
	}{
		{"nil hand", nil},
		{"no points", &detector.HandLandmarks{}},
		{"twenty points", &detector.HandLandmarks{Points: make([]detector.Point3D, 20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.hand)
			if !errors.Is(err, ErrInvalidLandmarkSet) {
				t.Errorf("Classify() error = %v, want ErrInvalidLandmarkSet", err)
			}
		})
	}
}

func TestPosture_String(t *testing.T) {
	p := Posture{true, true, false, false, true}
	if got := p.String(); got != "11001" {
		t.Errorf("String() = %q, want %q", got, "11001")
	}
}
