package gesture

// DefaultConfirmThreshold is the repeat count a gesture needs before it fires.
const DefaultConfirmThreshold = 3

// Debouncer confirms a gesture only after it has been seen on consecutive frames.
//
// The count starts at zero on the first sighting and is compared after it is
// incremented, so a threshold of 3 needs four matching frames in a row. A
// confirmation consumes the streak: a held gesture fires once and must be
// released before it can fire again.
type Debouncer struct {
	threshold int
	last      Label
	count     int
}

// NewDebouncer creates a Debouncer; thresholds below 1 fall back to the default.
func NewDebouncer(threshold int) *Debouncer {
	if threshold < 1 {
		threshold = DefaultConfirmThreshold
	}
	return &Debouncer{threshold: threshold}
}

// Observe feeds one frame's gesture and returns the confirmed gesture, or LabelNone.
func (d *Debouncer) Observe(label Label) Label {
	if label == d.last {
		d.count++
	} else {
		d.last = label
		d.count = 0
	}

	if d.count >= d.threshold && label != LabelNone {
		d.Reset()
		return label
	}
	return LabelNone
}

// Reset clears the current streak.
func (d *Debouncer) Reset() {
	d.last = LabelNone
	d.count = 0
}

// State returns the last observed gesture and its consecutive count.
func (d *Debouncer) State() (Label, int) {
	return d.last, d.count
}

// Threshold returns the configured confirmation threshold.
func (d *Debouncer) Threshold() int {
	return d.threshold
}
