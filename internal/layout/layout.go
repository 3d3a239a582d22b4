// Package layout converts active annotations plus heading and pitch state
// into vertical stacking levels and overlay positions. It is pure
// computation: no I/O, no retained state beyond the region tracker.
package layout

import (
	"math"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// TierClassifier assigns an initial vertical tier to an active annotation
// before collision resolution. Callers bucket by app-specific attributes;
// the default places everything on tier 0.
type TierClassifier func(*core.Annotation) int

// Params carries the geometry the engine needs for one reload cycle.
type Params struct {
	MaxVerticalLevel int
	ViewWidth        float64 // annotation view width, pixels
	ViewHeight       float64 // annotation view height, pixels
	PixelsPerDegree  float64
	Classifier       TierClassifier
}

// CollisionWidthDegrees is the assumed on-screen angular width of one
// annotation view, floored at MinAnnotationWidthDegrees.
func (p Params) CollisionWidthDegrees() float64 {
	w := geo.PixelsToDegrees(p.ViewWidth, p.PixelsPerDegree)
	if w < geo.MinAnnotationWidthDegrees {
		w = geo.MinAnnotationWidthDegrees
	}
	return w
}

// SetInitialVerticalLevels seeds levels for a full reload. Inactive
// annotations are parked past MaxVerticalLevel so they never render;
// active ones get their classifier tier. Assignment never reorders, so
// ties within a tier keep the distance-sort order.
func SetInitialVerticalLevels(annotations []*core.Annotation, p Params) {
	for _, a := range annotations {
		if !a.Active {
			a.VerticalLevel = p.MaxVerticalLevel + 1
			continue
		}
		if p.Classifier != nil {
			a.VerticalLevel = p.Classifier(a)
		} else {
			a.VerticalLevel = 0
		}
	}
}

// CalculateVerticalLevels resolves horizontal collisions among active
// annotations, level by level from 0 upward. When two annotations at the
// same level sit within one view-width of azimuth, the farther one is
// pushed up a level; on equal distance the second of the pair moves.
// Afterwards the levels are normalized so the lowest occupied tier is 0.
// Returns the number of pair comparisons, for performance metrics.
func CalculateVerticalLevels(active []*core.Annotation, p Params) int {
	if len(active) == 0 {
		return 0
	}

	width := p.CollisionWidthDegrees()
	comparisons := 0

	for level := 0; level <= p.MaxVerticalLevel; level++ {
		for i := 0; i < len(active); i++ {
			if active[i].VerticalLevel != level {
				continue
			}
			for j := i + 1; j < len(active); j++ {
				if active[j].VerticalLevel != level {
					continue
				}
				comparisons++
				delta := geo.AngularDelta(active[i].Azimuth, active[j].Azimuth)
				if math.Abs(delta) > width {
					continue
				}
				if active[i].DistanceFromUser > active[j].DistanceFromUser {
					// i moved up, stop comparing it at this level
					active[i].VerticalLevel++
					break
				}
				active[j].VerticalLevel++
			}
		}
	}

	normalizeLevels(active)
	return comparisons
}

// normalizeLevels shifts all active levels down so the frontmost occupied
// tier is 0. Without this, a cycle that pushes every survivor up by the
// same amount would leave a false gap above the horizon.
func normalizeLevels(active []*core.Annotation) {
	if len(active) == 0 {
		return
	}
	min := active[0].VerticalLevel
	for _, a := range active[1:] {
		if a.VerticalLevel < min {
			min = a.VerticalLevel
		}
	}
	if min == 0 {
		return
	}
	for _, a := range active {
		a.VerticalLevel -= min
	}
}
