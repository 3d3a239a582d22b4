package layout

import (
	"math"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// Viewport is the current drawable size, supplied by the presentation
// layer every frame.
type Viewport struct {
	Width  float64
	Height float64
}

const (
	// horizonFraction places vertical level 0 at 65% of viewport height.
	horizonFraction = 0.65

	// levelSpacingQuadratic adds 4*level^2 extra pixels per tier so higher
	// tiers compress less.
	levelSpacingQuadratic = 4.0

	// regionThresholdDegrees is the half-width of the north window inside
	// which the wraparound correction and region tracking apply.
	regionThresholdDegrees = 40.0
)

// Region classifies the heading against the 0/360 seam. The x wraparound
// correction changes discontinuously at the region boundary, so crossing
// regions demands a reposition-only pass.
type Region int

const (
	RegionNeutral    Region = iota
	RegionNorthRight        // heading within the window east of north
	RegionNorthLeft         // heading within the window west of north
)

// RegionForHeading returns the seam region for a heading in degrees.
func RegionForHeading(heading float64) Region {
	h := geo.NormalizeDegrees(heading)
	switch {
	case h < regionThresholdDegrees:
		return RegionNorthRight
	case h > 360-regionThresholdDegrees:
		return RegionNorthLeft
	default:
		return RegionNeutral
	}
}

// RegionTracker remembers the previous region so the controller can
// detect seam crossings between ticks.
type RegionTracker struct {
	current     Region
	initialized bool
}

// Update records the region for the new heading and reports whether it
// changed since the previous update. The first update never reports a
// change.
func (r *RegionTracker) Update(heading float64) bool {
	next := RegionForHeading(heading)
	if !r.initialized {
		r.initialized = true
		r.current = next
		return false
	}
	changed := next != r.current
	r.current = next
	return changed
}

// Current returns the last observed region.
func (r *RegionTracker) Current() Region {
	return r.current
}

// Position maps an annotation to overlay coordinates. X is the azimuth in
// overlay pixels, centered on the view; when the heading sits on one side
// of north and the azimuth on the other, X shifts by a full overlay width
// so markers near the seam do not fly across the screen. Y descends from
// the horizon line by view height per level plus quadratic spacing.
func Position(a *core.Annotation, heading float64, vp Viewport, p Params) (x, y float64) {
	x = geo.DegreesToPixels(a.Azimuth, p.PixelsPerDegree) - p.ViewWidth/2

	overlay := geo.OverlayWidth(p.PixelsPerDegree)
	h := geo.NormalizeDegrees(heading)
	if h < regionThresholdDegrees && a.Azimuth > 360-regionThresholdDegrees {
		x -= overlay
	} else if h > 360-regionThresholdDegrees && a.Azimuth < regionThresholdDegrees {
		x += overlay
	}

	level := float64(a.VerticalLevel)
	y = vp.Height*horizonFraction - p.ViewHeight*level - levelSpacingQuadratic*level*level
	return x, y
}

// Visible reports whether an annotation's view should be attached this
// frame. Runs every tick and is cheap: no geometry recompute, just the
// angular window against the smoothed heading and the level cap.
func Visible(a *core.Annotation, heading float64, vp Viewport, p Params) bool {
	if !a.Active || a.VerticalLevel > p.MaxVerticalLevel {
		return false
	}
	screenDegrees := geo.PixelsToDegrees(vp.Width, p.PixelsPerDegree)
	delta := geo.AngularDelta(geo.NormalizeDegrees(heading), a.Azimuth)
	return math.Abs(delta) < screenDegrees
}
