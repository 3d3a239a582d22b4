// Package ar is the public entry point of the overlay library. The
// Controller wires the sensor tracker, the annotation store and the
// layout engine into the frame-tick surface the presentation layer
// drives, and forwards every tracker event to app code through the event
// dispatcher.
package ar

import (
	"log/slog"
	"sync"
	"time"

	"github.com/javaboyjunior/HDAugmentedReality/internal/config"
	"github.com/javaboyjunior/HDAugmentedReality/internal/dispatcher"
	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/internal/layout"
	"github.com/javaboyjunior/HDAugmentedReality/internal/recorder"
	"github.com/javaboyjunior/HDAugmentedReality/internal/store"
	"github.com/javaboyjunior/HDAugmentedReality/internal/tracker"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// Knob bounds. Collision resolution is quadratic in the active count per
// level, so the caps keep a reload affordable on the frame path.
const (
	MaxVerticalLevelCap      = 10
	MaxVisibleAnnotationsCap = 500
)

// Defaults applied when the corresponding Options field is zero. Explicit
// zeros remain reachable through the setters.
const (
	DefaultMaxVerticalLevel      = 5
	DefaultMaxVisibleAnnotations = 100
)

// Default viewport used for reload geometry before the first Tick
// supplies real metrics.
var defaultViewport = layout.Viewport{Width: 390, Height: 844}

// View is an app-supplied annotation view. The controller only tracks
// identity; rendering is the presentation layer's business.
type View interface{}

// ViewFactory lazily creates a view the first time an annotation becomes
// visible. Returning nil skips the annotation this cycle.
type ViewFactory func(*core.Annotation) View

// Frame is the result of one tick: the smoothed heading and pitch, the
// placement of every active annotation, and the attach/detach diff
// against the previous frame.
type Frame struct {
	Heading     float64
	Pitch       float64
	Placements  map[*core.Annotation]core.Placement
	Attached    []*core.Annotation
	Detached    []*core.Annotation
	SeamCrossed bool
}

type reloadKind int

const (
	reloadFull reloadKind = iota
	reloadFixUpdate
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	MaxVerticalLevel       int
	MaxVisibleAnnotations  int
	MaxDistance            float64
	HeadingSmoothingFactor float64
	ViewWidth              float64
	ViewHeight             float64

	Classifier  layout.TierClassifier
	ViewFactory ViewFactory

	// Tracker options are forwarded to the embedded sensor tracker.
	Tracker tracker.Options

	Dispatcher *dispatcher.Dispatcher
	Recorder   recorder.Backend
	Logger     *slog.Logger
}

// Controller orchestrates the overlay. All mutation is serialized behind
// one mutex; tracker callbacks and frame ticks may arrive from different
// goroutines.
type Controller struct {
	mu sync.Mutex

	store   *store.AnnotationStore
	tracker *tracker.Tracker
	disp    *dispatcher.Dispatcher
	rec     recorder.Backend
	logger  *slog.Logger

	maxVerticalLevel      int
	maxVisibleAnnotations int
	maxDistance           float64
	smoothingFactor       float64
	viewWidth             float64
	viewHeight            float64
	classifier            layout.TierClassifier

	smoothedHeading float64
	headingKnown    bool
	regions         layout.RegionTracker
	lastViewport    layout.Viewport

	factory     ViewFactory
	views       map[*core.Annotation]View
	prevVisible map[*core.Annotation]bool

	lastCycle core.LayoutCycle

	reloading     bool
	reloadPending bool
}

// NewController builds a controller. Out-of-range knob values are
// clamped, never rejected.
func NewController(opts Options) *Controller {
	c := &Controller{
		store:        store.New(),
		disp:         opts.Dispatcher,
		rec:          opts.Recorder,
		logger:       opts.Logger,
		classifier:   opts.Classifier,
		factory:      opts.ViewFactory,
		views:        make(map[*core.Annotation]View),
		prevVisible:  make(map[*core.Annotation]bool),
		lastViewport: defaultViewport,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	maxLevel := opts.MaxVerticalLevel
	if maxLevel == 0 {
		maxLevel = DefaultMaxVerticalLevel
	}
	maxVisible := opts.MaxVisibleAnnotations
	if maxVisible == 0 {
		maxVisible = DefaultMaxVisibleAnnotations
	}
	c.maxVerticalLevel = config.ClampInt(maxLevel, 0, MaxVerticalLevelCap)
	c.maxVisibleAnnotations = config.ClampInt(maxVisible, 0, MaxVisibleAnnotationsCap)
	if opts.MaxDistance > 0 {
		c.maxDistance = opts.MaxDistance
	}
	c.smoothingFactor = config.ClampSmoothingFactor(opts.HeadingSmoothingFactor)

	c.viewWidth = opts.ViewWidth
	if c.viewWidth <= 0 {
		c.viewWidth = 150
	}
	c.viewHeight = opts.ViewHeight
	if c.viewHeight <= 0 {
		c.viewHeight = 50
	}

	trackerOpts := opts.Tracker
	if trackerOpts.Logger == nil {
		trackerOpts.Logger = c.logger
	}
	c.tracker = tracker.New(c, trackerOpts)
	return c
}

// Tracker exposes the embedded sensor tracker for sensor feeds and the
// debug location hook.
func (c *Controller) Tracker() *tracker.Tracker {
	return c.tracker
}

// Start begins tracking.
func (c *Controller) Start(notifyFailureOnTimeout bool) {
	c.tracker.Start(notifyFailureOnTimeout)
}

// Stop halts tracking and detaches every view. Views are detached before
// the location state goes away so teardown observes a consistent frame.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.detachAllLocked()
	c.mu.Unlock()

	c.tracker.Stop()
	c.store.ClearDerived()
}

// SetMaxVerticalLevel clamps to [0,10] and takes effect next reload.
func (c *Controller) SetMaxVerticalLevel(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxVerticalLevel = config.ClampInt(v, 0, MaxVerticalLevelCap)
}

// MaxVerticalLevel returns the current clamped value.
func (c *Controller) MaxVerticalLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxVerticalLevel
}

// SetMaxVisibleAnnotations clamps to [0,500] and takes effect next
// reload.
func (c *Controller) SetMaxVisibleAnnotations(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxVisibleAnnotations = config.ClampInt(v, 0, MaxVisibleAnnotationsCap)
}

// MaxVisibleAnnotations returns the current clamped value.
func (c *Controller) MaxVisibleAnnotations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxVisibleAnnotations
}

// SetMaxDistance sets the distance filter in meters; 0 disables it.
// Negative values clamp to 0.
func (c *Controller) SetMaxDistance(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 0 {
		v = 0
	}
	c.maxDistance = v
}

// SetHeadingSmoothingFactor clamps to (0,1]; 1 disables smoothing.
func (c *Controller) SetHeadingSmoothingFactor(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.smoothingFactor = config.ClampSmoothingFactor(v)
}

// SetAnnotations replaces the whole set and triggers a full reload.
// Existing views are destroyed first: replacing the set orphans their
// annotations.
func (c *Controller) SetAnnotations(list []*core.Annotation) {
	c.mu.Lock()
	c.detachAllLocked()
	c.mu.Unlock()

	dropped := c.store.SetAnnotations(list)
	if dropped > 0 {
		c.logger.Debug("dropped annotations with invalid coordinates", "count", dropped)
	}
	c.reload(reloadFull)
}

// Annotations returns the annotation list in its current order.
func (c *Controller) Annotations() []*core.Annotation {
	return c.store.Annotations()
}

// ActiveCount returns total and active annotation counts, for status
// monitoring.
func (c *Controller) ActiveCount() (total, active int) {
	for _, a := range c.store.Annotations() {
		total++
		if a.Active {
			active++
		}
	}
	return total, active
}

// LastLayoutCycle returns the timing of the most recent full reload.
func (c *Controller) LastLayoutCycle() core.LayoutCycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCycle
}

// Reload forces a full recompute: distance/azimuth for every annotation,
// distance sort, active selection and collision resolution.
func (c *Controller) Reload() {
	c.reload(reloadFull)
}

// reload runs the requested pass under the re-entrancy guard. A request
// arriving while a reload is in flight sets the pending flag; the flag is
// consumed as a full reload after the in-flight pass completes.
func (c *Controller) reload(kind reloadKind) {
	c.mu.Lock()
	if c.reloading {
		c.reloadPending = true
		c.mu.Unlock()
		return
	}
	c.reloading = true
	c.mu.Unlock()

	for {
		c.runReload(kind)

		c.mu.Lock()
		if !c.reloadPending {
			c.reloading = false
			c.mu.Unlock()
			return
		}
		c.reloadPending = false
		kind = reloadFull
		c.mu.Unlock()
	}
}

func (c *Controller) runReload(kind reloadKind) {
	fix, ok := c.tracker.UserLocation()
	if !ok {
		// Derived fields are only valid while a location is known.
		c.store.ClearDerived()
		return
	}

	c.mu.Lock()
	loc := fix.Location
	params := c.layoutParamsLocked(c.lastViewport)
	maxVisible := c.maxVisibleAnnotations
	maxLevel := c.maxVerticalLevel
	maxDist := c.maxDistance
	c.mu.Unlock()

	if kind == reloadFixUpdate {
		// Cheap pass: refresh geometry of the active subset, never
		// reordering the master list.
		c.store.RecomputeDistanceAndAzimuth(loc, false, store.ScopeActiveOnly)
		return
	}

	start := time.Now()
	c.store.RecomputeDistanceAndAzimuth(loc, true, store.ScopeAll)
	active := c.store.SelectActive(maxVisible, maxLevel, maxDist)
	layout.SetInitialVerticalLevels(c.store.Annotations(), params)
	passes := layout.CalculateVerticalLevels(active, params)

	cycle := core.LayoutCycle{
		Time:            start,
		ActiveCount:     len(active),
		CollisionPasses: passes,
		Duration:        time.Since(start),
	}

	c.mu.Lock()
	c.lastCycle = cycle
	c.mu.Unlock()

	c.logger.Debug("layout cycle complete",
		"active", cycle.ActiveCount,
		"comparisons", cycle.CollisionPasses,
		"duration", cycle.Duration)

	c.emit(dispatcher.EventLayoutCycle, cycle)
	if c.rec != nil {
		if err := c.rec.RecordLayoutCycle(cycle); err != nil {
			c.logger.Debug("layout cycle not recorded", "error", err)
		}
		for _, a := range active {
			if err := c.rec.RecordAnnotationSnapshot(*a); err != nil {
				c.logger.Debug("annotation snapshot not recorded", "error", err)
				break
			}
		}
	}
}

// Tick computes one frame: smoothed heading, per-annotation placement and
// the attach/detach diff against the previous frame. The viewport is
// remembered for subsequent reload geometry.
func (c *Controller) Tick(vp layout.Viewport) Frame {
	c.mu.Lock()
	if vp.Width > 0 && vp.Height > 0 {
		c.lastViewport = vp
	} else {
		vp = c.lastViewport
	}
	heading := c.smoothedHeading
	params := c.layoutParamsLocked(vp)
	seamCrossed := c.regions.Update(heading)
	c.mu.Unlock()

	frame := Frame{
		Heading:     heading,
		Pitch:       c.tracker.Pitch(),
		Placements:  make(map[*core.Annotation]core.Placement),
		SeamCrossed: seamCrossed,
	}
	if c.rec != nil {
		err := c.rec.RecordPitchSample(core.PitchSample{
			Pitch:       frame.Pitch,
			Orientation: c.tracker.Orientation(),
			Timestamp:   time.Now(),
		})
		if err != nil {
			c.logger.Debug("pitch sample not recorded", "error", err)
		}
	}

	visibleNow := make(map[*core.Annotation]bool)
	for _, a := range c.store.Annotations() {
		if !a.Active {
			continue
		}
		x, y := layout.Position(a, heading, vp, params)
		visible := layout.Visible(a, heading, vp, params)
		frame.Placements[a] = core.Placement{X: x, Y: y, Visible: visible}
		if visible {
			visibleNow[a] = true
		}
	}

	c.mu.Lock()
	for a := range visibleNow {
		if c.prevVisible[a] {
			continue
		}
		if _, ok := c.views[a]; !ok && c.factory != nil {
			if v := c.factory(a); v != nil {
				c.views[a] = v
			}
		}
		frame.Attached = append(frame.Attached, a)
	}
	for a := range c.prevVisible {
		if !visibleNow[a] {
			frame.Detached = append(frame.Detached, a)
			delete(c.views, a)
		}
	}
	c.prevVisible = visibleNow
	c.mu.Unlock()

	return frame
}

// ViewFor returns the live view associated with an annotation, if any.
func (c *Controller) ViewFor(a *core.Annotation) (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[a]
	return v, ok
}

// DetachView clears the forward reference for one annotation. Destroying
// a view clears the forward reference only; the annotation itself stays
// in the store.
func (c *Controller) DetachView(a *core.Annotation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, a)
	delete(c.prevVisible, a)
}

func (c *Controller) detachAllLocked() {
	c.views = make(map[*core.Annotation]View)
	c.prevVisible = make(map[*core.Annotation]bool)
}

func (c *Controller) layoutParamsLocked(vp layout.Viewport) layout.Params {
	return layout.Params{
		MaxVerticalLevel: c.maxVerticalLevel,
		ViewWidth:        c.viewWidth,
		ViewHeight:       c.viewHeight,
		PixelsPerDegree:  geo.PixelsPerDegree(vp.Width),
		Classifier:       c.classifier,
	}
}

func (c *Controller) emit(name string, payload any) {
	if c.disp != nil {
		c.disp.Emit(name, payload)
	}
}

// HeadingUpdated folds the raw compass reading into the exponentially
// smoothed rendering heading, seam-aware: the correction follows the
// shortest angular arc, so 355 to 5 moves forward through north.
func (c *Controller) HeadingUpdated(heading float64) {
	c.mu.Lock()
	if !c.headingKnown {
		c.smoothedHeading = heading
		c.headingKnown = true
	} else {
		delta := geo.AngularDelta(c.smoothedHeading, heading)
		c.smoothedHeading = geo.NormalizeDegrees(c.smoothedHeading + c.smoothingFactor*delta)
	}
	smoothed := c.smoothedHeading
	c.mu.Unlock()

	c.emit(dispatcher.EventHeadingUpdated, smoothed)
	if c.rec != nil {
		err := c.rec.RecordHeadingSample(core.HeadingSample{
			TrueHeading: heading,
			Timestamp:   time.Now(),
		})
		if err != nil {
			c.logger.Debug("heading sample not recorded", "error", err)
		}
	}
}

// SmoothedHeading returns the current rendering heading.
func (c *Controller) SmoothedHeading() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.smoothedHeading
}

// UserLocationUpdated refreshes the active subset's geometry without
// reordering, and forwards the event.
func (c *Controller) UserLocationUpdated(fix core.LocationFix) {
	c.reload(reloadFixUpdate)
	c.emit(dispatcher.EventLocationUpdated, fix)
	if c.rec != nil {
		if err := c.rec.RecordLocationFix(fix); err != nil {
			c.logger.Debug("location fix not recorded", "error", err)
		}
	}
}

// ReloadLocationUpdated runs a full reload and forwards the stronger
// signal so app code can refresh its annotation data.
func (c *Controller) ReloadLocationUpdated(fix core.LocationFix) {
	c.reload(reloadFull)
	c.emit(dispatcher.EventLocationReload, fix)
}

// LocationSearchFailing forwards the advisory watchdog event.
func (c *Controller) LocationSearchFailing(elapsed time.Duration, everFoundLocation bool) {
	c.emit(dispatcher.EventLocationFailing, SearchFailing{
		Elapsed:           elapsed,
		EverFoundLocation: everFoundLocation,
	})
}

// SearchFailing is the payload of the location-failing event.
type SearchFailing struct {
	Elapsed           time.Duration
	EverFoundLocation bool
}
