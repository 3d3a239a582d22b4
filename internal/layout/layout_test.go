package layout

import (
	"testing"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

func testParams() Params {
	return Params{
		MaxVerticalLevel: 5,
		ViewWidth:        150,
		ViewHeight:       50,
		PixelsPerDegree:  13, // 390px viewport / 30 degrees
	}
}

func activeAnn(id string, azimuth, distance float64) *core.Annotation {
	return &core.Annotation{
		ID:               id,
		Active:           true,
		Azimuth:          azimuth,
		DistanceFromUser: distance,
	}
}

func TestSetInitialVerticalLevels_ParksInactive(t *testing.T) {
	p := testParams()
	a := activeAnn("a", 0, 10)
	b := activeAnn("b", 0, 20)
	b.Active = false
	b.VerticalLevel = 2

	SetInitialVerticalLevels([]*core.Annotation{a, b}, p)

	if a.VerticalLevel != 0 {
		t.Errorf("active annotation should start at 0, got %d", a.VerticalLevel)
	}
	if b.VerticalLevel != p.MaxVerticalLevel+1 {
		t.Errorf("inactive annotation should be parked at %d, got %d", p.MaxVerticalLevel+1, b.VerticalLevel)
	}
}

func TestSetInitialVerticalLevels_UsesClassifier(t *testing.T) {
	p := testParams()
	p.Classifier = func(a *core.Annotation) int {
		if a.Attributes["kind"] == "featured" {
			return 1
		}
		return 3
	}
	a := activeAnn("a", 0, 10)
	a.Attributes = map[string]string{"kind": "featured"}
	b := activeAnn("b", 0, 20)

	SetInitialVerticalLevels([]*core.Annotation{a, b}, p)

	if a.VerticalLevel != 1 || b.VerticalLevel != 3 {
		t.Errorf("classifier tiers not applied: got %d and %d", a.VerticalLevel, b.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_FartherPushedUp(t *testing.T) {
	p := testParams()
	near := activeAnn("near", 90, 10)
	far := activeAnn("far", 90, 20)
	active := []*core.Annotation{near, far}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if near.VerticalLevel != 0 {
		t.Errorf("nearer annotation should stay at 0, got %d", near.VerticalLevel)
	}
	if far.VerticalLevel != 1 {
		t.Errorf("farther annotation should move to 1, got %d", far.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_TiePushesSecond(t *testing.T) {
	p := testParams()
	first := activeAnn("first", 45, 100)
	second := activeAnn("second", 45, 100)
	active := []*core.Annotation{first, second}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if first.VerticalLevel != 0 || second.VerticalLevel != 1 {
		t.Errorf("equal distance must push the second of the pair: got %d and %d",
			first.VerticalLevel, second.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_StackOfThree(t *testing.T) {
	p := testParams()
	a := activeAnn("a", 180, 10)
	b := activeAnn("b", 180, 20)
	c := activeAnn("c", 180, 30)
	active := []*core.Annotation{a, b, c}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if a.VerticalLevel != 0 || b.VerticalLevel != 1 || c.VerticalLevel != 2 {
		t.Errorf("expected levels 0,1,2 got %d,%d,%d",
			a.VerticalLevel, b.VerticalLevel, c.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_NoCollisionWhenApart(t *testing.T) {
	p := testParams()
	a := activeAnn("a", 10, 10)
	b := activeAnn("b", 60, 20)
	active := []*core.Annotation{a, b}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if a.VerticalLevel != 0 || b.VerticalLevel != 0 {
		t.Errorf("distant azimuths must not collide: got %d and %d",
			a.VerticalLevel, b.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_CollidesAcrossSeam(t *testing.T) {
	p := testParams()
	a := activeAnn("a", 358, 10)
	b := activeAnn("b", 2, 20)
	active := []*core.Annotation{a, b}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if b.VerticalLevel != 1 {
		t.Errorf("seam-crossing pair must collide, got level %d", b.VerticalLevel)
	}
}

func TestCalculateVerticalLevels_NormalizationInvariant(t *testing.T) {
	p := testParams()
	p.Classifier = func(*core.Annotation) int { return 3 }
	a := activeAnn("a", 10, 10)
	b := activeAnn("b", 100, 20)
	active := []*core.Annotation{a, b}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	min := active[0].VerticalLevel
	for _, ann := range active {
		if ann.VerticalLevel < min {
			min = ann.VerticalLevel
		}
	}
	if min != 0 {
		t.Errorf("minimum active level must normalize to 0, got %d", min)
	}
}

func TestCalculateVerticalLevels_Idempotent(t *testing.T) {
	p := testParams()
	active := []*core.Annotation{
		activeAnn("a", 90, 10),
		activeAnn("b", 91, 20),
		activeAnn("c", 92, 30),
		activeAnn("d", 200, 5),
	}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)
	first := make([]int, len(active))
	for i, a := range active {
		first[i] = a.VerticalLevel
	}

	CalculateVerticalLevels(active, p)
	for i, a := range active {
		if a.VerticalLevel != first[i] {
			t.Errorf("level of %s changed on second run: %d -> %d", a.ID, first[i], a.VerticalLevel)
		}
	}
}

func TestCalculateVerticalLevels_EmptyInput(t *testing.T) {
	if n := CalculateVerticalLevels(nil, testParams()); n != 0 {
		t.Errorf("expected 0 comparisons for empty input, got %d", n)
	}
}

func TestCalculateVerticalLevels_CanExceedMax(t *testing.T) {
	// Seven annotations at the same azimuth with MaxVerticalLevel 5: the
	// deepest one ends past the cap and must be filtered by the next
	// active-selection pass.
	p := testParams()
	active := make([]*core.Annotation, 7)
	for i := range active {
		active[i] = activeAnn(string(rune('a'+i)), 90, float64(10*(i+1)))
	}
	SetInitialVerticalLevels(active, p)

	CalculateVerticalLevels(active, p)

	if active[6].VerticalLevel <= p.MaxVerticalLevel {
		t.Errorf("deepest annotation should exceed the cap, got %d", active[6].VerticalLevel)
	}
}

func TestCollisionWidthDegrees_Floor(t *testing.T) {
	p := testParams()
	p.ViewWidth = 10 // under a degree at 13 px/deg
	if w := p.CollisionWidthDegrees(); w != 5 {
		t.Errorf("expected 5 degree floor, got %f", w)
	}

	p.ViewWidth = 150
	if w := p.CollisionWidthDegrees(); w <= 5 {
		t.Errorf("wide views must exceed the floor, got %f", w)
	}
}
