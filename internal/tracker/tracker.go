// Package tracker owns the raw location, heading and accelerometer inputs
// and turns them into filtered, debounced events for the presentation
// layer. Bad fixes are dropped, never surfaced as errors; the watchdog is
// an advisory UI hint, not a failure.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// State is the tracker lifecycle state.
type State int

const (
	StateStopped State = iota
	StateSearchingForLocation
	StateHasLocation
)

// String returns the state name for logs and status output.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateSearchingForLocation:
		return "searchingForLocation"
	case StateHasLocation:
		return "hasLocation"
	default:
		return "unknown"
	}
}

const (
	// maxFixAge rejects stale fixes replayed by the platform on resume.
	maxFixAge = 30 * time.Second

	// maxHorizontalAccuracy rejects fixes worse than cell-tower precision.
	maxHorizontalAccuracy = 500.0

	// reportInterval is both the debounce window for location reports and
	// the watchdog re-arm period.
	reportInterval = 5 * time.Second

	// DefaultReloadDistanceFilter is how far the user must move from the
	// reload anchor before a reload event fires.
	DefaultReloadDistanceFilter = 75.0
)

// Listener receives tracker events. Calls are made outside the tracker's
// lock, so listeners may call back into the tracker.
type Listener interface {
	// HeadingUpdated fires on every compass reading.
	HeadingUpdated(heading float64)
	// UserLocationUpdated fires on each debounced location report.
	UserLocationUpdated(fix core.LocationFix)
	// ReloadLocationUpdated fires when the user moved past the reload
	// distance filter; consumers should refresh their annotation data.
	ReloadLocationUpdated(fix core.LocationFix)
	// LocationSearchFailing fires while the watchdog is armed and no fix
	// has been accepted yet.
	LocationSearchFailing(elapsed time.Duration, everFoundLocation bool)
}

// Options configures a Tracker. Zero values select the defaults.
type Options struct {
	ReloadDistanceFilter float64
	ZeroAltitude         bool
	Clock                Clock
	Logger               *slog.Logger
}

// Tracker is the location/heading tracking state machine.
type Tracker struct {
	mu       sync.Mutex
	listener Listener
	clock    Clock
	logger   *slog.Logger

	reloadDistanceFilter float64
	zeroAltitude         bool

	state       State
	startedAt   time.Time
	everFound   bool
	heading     float64
	orientation core.DeviceOrientation

	current      *core.LocationFix
	anchor       *core.LocationFix
	lastReportAt time.Time

	reportTimer   Timer
	watchdogTimer Timer

	debugLocation *core.Location

	filtered  core.AccelSample
	prevPitch float64

	fixesAccepted metric.Int64Counter
	fixesDropped  metric.Int64Counter
}

// New creates a stopped tracker delivering events to listener.
func New(listener Listener, opts Options) *Tracker {
	t := &Tracker{
		listener:             listener,
		clock:                opts.Clock,
		logger:               opts.Logger,
		reloadDistanceFilter: opts.ReloadDistanceFilter,
		zeroAltitude:         opts.ZeroAltitude,
	}
	if t.clock == nil {
		t.clock = realClock{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.reloadDistanceFilter <= 0 {
		t.reloadDistanceFilter = DefaultReloadDistanceFilter
	}

	m := meter()
	t.fixesAccepted, _ = m.Int64Counter(
		"tracker.fixes.accepted",
		metric.WithDescription("Location fixes accepted after filtering"),
	)
	t.fixesDropped, _ = m.Int64Counter(
		"tracker.fixes.dropped",
		metric.WithDescription("Location fixes dropped by age or accuracy filters"),
	)

	return t
}

// Start moves the tracker into the searching state. When
// notifyFailureOnTimeout is set, an immediate "search failing, elapsed=0"
// event is emitted and a repeating watchdog is armed.
func (t *Tracker) Start(notifyFailureOnTimeout bool) {
	t.mu.Lock()
	if t.state != StateStopped {
		t.mu.Unlock()
		return
	}
	t.state = StateSearchingForLocation
	t.startedAt = t.clock.Now()

	listener := t.listener
	ever := t.everFound
	if notifyFailureOnTimeout {
		t.watchdogTimer = t.clock.AfterFunc(reportInterval, t.watchdogTick)
	}
	t.mu.Unlock()

	t.logger.Info("tracking started", "watchdog", notifyFailureOnTimeout)
	if notifyFailureOnTimeout && listener != nil {
		listener.LocationSearchFailing(0, ever)
	}
}

// Stop cancels all subscriptions and timers and clears location state.
// Completed callbacks have already applied their mutations, so no partial
// state survives.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	t.state = StateStopped
	t.stopTimersLocked()
	t.current = nil
	t.anchor = nil
	t.lastReportAt = time.Time{}
	t.mu.Unlock()

	t.logger.Info("tracking stopped")
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Heading returns the last raw compass heading in [0,360).
func (t *Tracker) Heading() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heading
}

// UserLocation returns the current best-known fix, if any.
func (t *Tracker) UserLocation() (core.LocationFix, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return core.LocationFix{}, false
	}
	return *t.current, true
}

// SetOrientation tells the tracker the new device orientation so the
// pitch axis mapping stays correct.
func (t *Tracker) SetOrientation(o core.DeviceOrientation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orientation = o
}

// Orientation returns the orientation currently used for pitch mapping.
func (t *Tracker) Orientation() core.DeviceOrientation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orientation
}

// ProcessHeading stores a compass reading and notifies the listener.
func (t *Tracker) ProcessHeading(trueHeading float64) {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	t.heading = geo.NormalizeDegrees(trueHeading)
	heading := t.heading
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener.HeadingUpdated(heading)
	}
}

// ProcessLocationFix runs one location reading through the accuracy/age
// filter, the altitude-zeroing policy, the debug override, and the
// debounced reporting path.
func (t *Tracker) ProcessLocationFix(fix core.LocationFix) {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	age := now.Sub(fix.Timestamp)
	if age > maxFixAge || fix.HorizontalAccuracy < 0 || fix.HorizontalAccuracy > maxHorizontalAccuracy {
		t.mu.Unlock()
		t.fixesDropped.Add(context.Background(), 1)
		t.logger.Debug("dropping location fix",
			"age", age, "horizontalAccuracy", fix.HorizontalAccuracy)
		return
	}

	t.stopWatchdogLocked()
	if t.zeroAltitude {
		fix.Location.Altitude = 0
	}
	if t.debugLocation != nil {
		fix.Location = *t.debugLocation
	}
	t.current = &fix
	t.state = StateHasLocation
	if t.anchor == nil {
		anchor := fix
		t.anchor = &anchor
	}

	first := !t.everFound
	t.everFound = true
	t.mu.Unlock()

	t.fixesAccepted.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("first", first)))

	if first {
		// First fix ever reports immediately.
		t.report()
		return
	}

	t.mu.Lock()
	if t.reportTimer != nil {
		// A report is already scheduled; it will pick up the latest fix.
		t.mu.Unlock()
		return
	}
	t.reportTimer = t.clock.AfterFunc(reportInterval, t.reportTick)
	t.mu.Unlock()
}

// StartDebugMode pins the user location to a fixed value, bypassing the
// filtering path entirely.
func (t *Tracker) StartDebugMode(loc core.Location) {
	t.mu.Lock()
	t.debugLocation = &loc
	fix := core.LocationFix{Location: loc, Timestamp: t.clock.Now()}
	t.current = &fix
	if t.state == StateSearchingForLocation {
		t.state = StateHasLocation
	}
	if t.anchor == nil {
		anchor := fix
		t.anchor = &anchor
	}
	listener := t.listener
	t.mu.Unlock()

	t.logger.Info("debug location armed",
		"latitude", loc.Latitude, "longitude", loc.Longitude)
	if listener != nil {
		listener.UserLocationUpdated(fix)
	}
}

// StopDebugMode clears both the override and the live location; the next
// accepted fix repopulates it.
func (t *Tracker) StopDebugMode() {
	t.mu.Lock()
	t.debugLocation = nil
	t.current = nil
	if t.state == StateHasLocation {
		t.state = StateSearchingForLocation
	}
	t.mu.Unlock()

	t.logger.Info("debug location cleared")
}

func (t *Tracker) reportTick() {
	t.mu.Lock()
	t.reportTimer = nil
	stopped := t.state == StateStopped
	t.mu.Unlock()
	if stopped {
		return
	}
	t.report()
}

// report emits user-location-updated with the latest fix, then checks the
// reload anchor.
func (t *Tracker) report() {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return
	}
	fix := *t.current
	t.lastReportAt = t.clock.Now()

	var reload bool
	if t.anchor != nil &&
		geo.DistanceMeters(t.anchor.Location, fix.Location) > t.reloadDistanceFilter {
		anchor := fix
		t.anchor = &anchor
		reload = true
	}
	listener := t.listener
	t.mu.Unlock()

	if listener == nil {
		return
	}
	listener.UserLocationUpdated(fix)
	if reload {
		t.logger.Debug("reload anchor moved", "latitude", fix.Location.Latitude,
			"longitude", fix.Location.Longitude)
		listener.ReloadLocationUpdated(fix)
	}
}

func (t *Tracker) watchdogTick() {
	t.mu.Lock()
	if t.state == StateStopped || t.watchdogTimer == nil {
		t.mu.Unlock()
		return
	}
	elapsed := t.clock.Now().Sub(t.startedAt)
	ever := t.everFound
	listener := t.listener
	t.watchdogTimer = t.clock.AfterFunc(reportInterval, t.watchdogTick)
	t.mu.Unlock()

	if listener != nil {
		listener.LocationSearchFailing(elapsed, ever)
	}
}

func (t *Tracker) stopWatchdogLocked() {
	if t.watchdogTimer != nil {
		t.watchdogTimer.Stop()
		t.watchdogTimer = nil
	}
}

func (t *Tracker) stopTimersLocked() {
	t.stopWatchdogLocked()
	if t.reportTimer != nil {
		t.reportTimer.Stop()
		t.reportTimer = nil
	}
}
