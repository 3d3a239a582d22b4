package store

import (
	"sort"
	"sync"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// Scope selects which annotations a recompute pass touches.
type Scope int

const (
	// ScopeAll recomputes every annotation in the store.
	ScopeAll Scope = iota
	// ScopeActiveOnly recomputes only annotations currently marked active.
	ScopeActiveOnly
)

// AnnotationStore holds the full candidate set of annotations and owns
// their derived fields. Latency here matters: the layout engine reads the
// set on every reload cycle.
type AnnotationStore struct {
	mu          sync.Mutex
	annotations []*core.Annotation
}

func New() *AnnotationStore {
	return &AnnotationStore{
		annotations: make([]*core.Annotation, 0),
	}
}

// SetAnnotations replaces the whole set. Entries with an invalid
// coordinate are silently dropped; the number of dropped entries is
// returned for logging.
func (s *AnnotationStore) SetAnnotations(list []*core.Annotation) (dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := make([]*core.Annotation, 0, len(list))
	for _, a := range list {
		if a == nil || !geo.ValidCoordinate(a.Location) {
			dropped++
			continue
		}
		accepted = append(accepted, a)
	}
	s.annotations = accepted
	return dropped
}

// Annotations returns the annotation list in its current order. The slice
// is a copy but the elements are the live annotations.
func (s *AnnotationStore) Annotations() []*core.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// Len returns the number of stored annotations.
func (s *AnnotationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.annotations)
}

// RecomputeDistanceAndAzimuth refreshes the derived geometry of every
// annotation in scope from the given user location. When sortByDistance is
// set, the full list is stable-sorted ascending by distance afterwards;
// non-sorting passes never reorder the list.
func (s *AnnotationStore) RecomputeDistanceAndAzimuth(user core.Location, sortByDistance bool, scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.annotations {
		if scope == ScopeActiveOnly && !a.Active {
			continue
		}
		a.DistanceFromUser = geo.DistanceMeters(user, a.Location)
		a.Azimuth = geo.Azimuth(user, a.Location)
	}

	if sortByDistance {
		sort.SliceStable(s.annotations, func(i, j int) bool {
			return s.annotations[i].DistanceFromUser < s.annotations[j].DistanceFromUser
		})
	}
}

// ClearDerived zeroes distance and azimuth and deactivates everything.
// Used when the user location becomes unknown: derived fields are only
// valid while a location is known.
func (s *AnnotationStore) ClearDerived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.annotations {
		a.DistanceFromUser = 0
		a.Azimuth = 0
		a.Active = false
	}
}

// SelectActive walks the list in its current order and marks up to
// maxVisible annotations active. The count cap applies in list order ahead
// of the level and distance filters, and the count only advances for
// annotations that pass every filter. maxDistance 0 means unlimited.
// Returns the active subset in list order.
func (s *AnnotationStore) SelectActive(maxVisible, maxVerticalLevel int, maxDistance float64) []*core.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]*core.Annotation, 0, maxVisible)
	count := 0
	for _, a := range s.annotations {
		if count >= maxVisible {
			a.Active = false
			continue
		}
		if a.VerticalLevel > maxVerticalLevel {
			a.Active = false
			continue
		}
		if maxDistance > 0 && a.DistanceFromUser > maxDistance {
			a.Active = false
			continue
		}
		a.Active = true
		active = append(active, a)
		count++
	}
	return active
}
