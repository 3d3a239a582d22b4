package store

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

func ann(id string, lat, lon float64) *core.Annotation {
	return &core.Annotation{
		ID:       id,
		Location: core.Location{Latitude: lat, Longitude: lon},
	}
}

func TestSetAnnotations_DropsInvalidCoordinates(t *testing.T) {
	s := New()

	dropped := s.SetAnnotations([]*core.Annotation{
		ann("ok", 10, 20),
		ann("bad-lat", 91, 0),
		ann("bad-lon", 0, 181),
		ann("nan", math.NaN(), 0),
		nil,
		ann("ok2", -45, 170),
	})

	assert.Equal(t, 4, dropped)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "ok", s.Annotations()[0].ID)
	assert.Equal(t, "ok2", s.Annotations()[1].ID)
}

func TestSetAnnotations_ReplacesWholesale(t *testing.T) {
	s := New()
	s.SetAnnotations([]*core.Annotation{ann("a", 1, 1), ann("b", 2, 2)})
	s.SetAnnotations([]*core.Annotation{ann("c", 3, 3)})

	require.Equal(t, 1, s.Len())
	assert.Equal(t, "c", s.Annotations()[0].ID)
}

func TestRecompute_SortsOnlyWhenAsked(t *testing.T) {
	s := New()
	user := core.Location{Latitude: 0, Longitude: 0}
	// far first, near second
	s.SetAnnotations([]*core.Annotation{ann("far", 0, 2), ann("near", 0, 1)})

	s.RecomputeDistanceAndAzimuth(user, false, ScopeAll)
	assert.Equal(t, "far", s.Annotations()[0].ID, "non-sorting pass must not reorder")

	s.RecomputeDistanceAndAzimuth(user, true, ScopeAll)
	assert.Equal(t, "near", s.Annotations()[0].ID)
	assert.Equal(t, "far", s.Annotations()[1].ID)
}

func TestRecompute_ActiveOnlyScopeLeavesInactiveStale(t *testing.T) {
	s := New()
	a := ann("a", 0, 1)
	b := ann("b", 0, 2)
	a.Active = true
	s.SetAnnotations([]*core.Annotation{a, b})

	s.RecomputeDistanceAndAzimuth(core.Location{}, false, ScopeActiveOnly)

	assert.NotZero(t, a.DistanceFromUser)
	assert.Zero(t, b.DistanceFromUser)
}

func TestRecompute_StableSortKeepsEqualDistanceOrder(t *testing.T) {
	s := New()
	// same coordinate means identical distance
	s.SetAnnotations([]*core.Annotation{ann("first", 0, 1), ann("second", 0, 1)})

	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	assert.Equal(t, "first", s.Annotations()[0].ID)
	assert.Equal(t, "second", s.Annotations()[1].ID)
}

func TestSelectActive_CountCap(t *testing.T) {
	s := New()
	list := make([]*core.Annotation, 600)
	for i := range list {
		list[i] = ann(fmt.Sprintf("a%03d", i), 0, 0.001*float64(i+1))
	}
	s.SetAnnotations(list)
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	active := s.SelectActive(100, 10, 0)

	require.Len(t, active, 100)
	for i, a := range active {
		assert.True(t, a.Active)
		assert.Equal(t, fmt.Sprintf("a%03d", i), a.ID, "active subset must keep sorted order")
	}
	for _, a := range s.Annotations()[100:] {
		assert.False(t, a.Active)
	}
}

func TestSelectActive_DistanceFilter(t *testing.T) {
	s := New()
	near := ann("near", 0, 0.0001) // ~11m
	far := ann("far", 0, 0.01)     // ~1.1km
	s.SetAnnotations([]*core.Annotation{near, far})
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	active := s.SelectActive(10, 10, 500)

	require.Len(t, active, 1)
	assert.Equal(t, "near", active[0].ID)
	assert.False(t, far.Active)
}

func TestSelectActive_ZeroDistanceIsUnlimited(t *testing.T) {
	s := New()
	far := ann("far", 45, 90)
	s.SetAnnotations([]*core.Annotation{far})
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	active := s.SelectActive(10, 10, 0)
	require.Len(t, active, 1)
}

func TestSelectActive_VerticalLevelFilter(t *testing.T) {
	s := New()
	a := ann("kept", 0, 1)
	b := ann("pushed-out", 0, 2)
	b.VerticalLevel = 6
	s.SetAnnotations([]*core.Annotation{a, b})
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	active := s.SelectActive(10, 5, 0)

	require.Len(t, active, 1)
	assert.Equal(t, "kept", active[0].ID)
}

func TestSelectActive_CapDoesNotBackfill(t *testing.T) {
	// An annotation beyond the cap stays inactive even though an earlier
	// one was rejected by a filter; the counter only advances on passes.
	s := New()
	a := ann("a", 0, 0.001)
	b := ann("b", 0, 0.002)
	c := ann("c", 0, 0.003)
	b.VerticalLevel = 9
	s.SetAnnotations([]*core.Annotation{a, b, c})
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)

	active := s.SelectActive(2, 5, 0)

	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)
	assert.Equal(t, "c", active[1].ID)
	assert.False(t, b.Active)
}

func TestClearDerived(t *testing.T) {
	s := New()
	a := ann("a", 0, 1)
	s.SetAnnotations([]*core.Annotation{a})
	s.RecomputeDistanceAndAzimuth(core.Location{}, true, ScopeAll)
	s.SelectActive(10, 10, 0)
	require.True(t, a.Active)

	s.ClearDerived()

	assert.Zero(t, a.DistanceFromUser)
	assert.Zero(t, a.Azimuth)
	assert.False(t, a.Active)
}
