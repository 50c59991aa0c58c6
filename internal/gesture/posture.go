package gesture

import (
	"errors"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrInvalidLandmarkSet is returned when a hand does not carry all 21 landmarks.
var ErrInvalidLandmarkSet = errors.New("invalid landmark set")

// Finger positions within a Posture.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// Posture records which fingers are extended, ordered thumb to pinky.
type Posture [5]bool

// String renders the posture as five digits, e.g. "11001".
func (p Posture) String() string {
	var b strings.Builder
	for _, up := range p {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

var fingerTips = [5]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// Classify derives the posture of a single hand.
//
// The thumb counts as extended when its tip lies left of the IP joint. This
// holds for a right hand in a mirrored frame only; the opposite hand or an
// un-mirrored frame will read inverted. The other fingers count as extended
// when the tip lies above the PIP joint (smaller Y).
func Classify(hand *detector.HandLandmarks) (Posture, error) {
	var p Posture
	if !hand.Complete() {
		return p, ErrInvalidLandmarkSet
	}

	pts := hand.Points
	thumb := fingerTips[Thumb]
	p[Thumb] = pts[thumb].X < pts[thumb-1].X

	for f := Index; f <= Pinky; f++ {
		tip := fingerTips[f]
		p[f] = pts[tip].Y < pts[tip-2].Y
	}

	return p, nil
}
