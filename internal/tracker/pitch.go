package tracker

import (
	"math"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// accelFilterFactor is the low-pass weight for new accelerometer samples.
const accelFilterFactor = 0.05

// ProcessAccelerometer folds one raw sample into the low-pass filter.
func (t *Tracker) ProcessAccelerometer(s core.AccelSample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateStopped {
		return
	}
	t.filtered.X = s.X*accelFilterFactor + t.filtered.X*(1-accelFilterFactor)
	t.filtered.Y = s.Y*accelFilterFactor + t.filtered.Y*(1-accelFilterFactor)
	t.filtered.Z = s.Z*accelFilterFactor + t.filtered.Z*(1-accelFilterFactor)
}

// Pitch derives the device pitch in degrees from the filtered
// accelerometer state. The axis pair fed to atan2 depends on the device
// orientation; the result is offset by 90 so an upright device reads 0,
// then averaged 50/50 with the previous value for additional smoothing.
func (t *Tracker) Pitch() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := t.filtered
	var angle float64
	switch t.orientation {
	case core.OrientationPortraitUpsideDown:
		angle = math.Atan2(-f.Y, f.Z)
	case core.OrientationLandscapeLeft:
		angle = math.Atan2(f.X, f.Z)
	case core.OrientationLandscapeRight:
		angle = math.Atan2(-f.X, f.Z)
	default:
		angle = math.Atan2(f.Y, f.Z)
	}

	pitch := geo.RadiansToDegrees(angle) + 90
	t.prevPitch = (t.prevPitch + pitch) / 2
	return t.prevPitch
}
