// Package memory buffers a whole session in memory and exports it as a
// JSON (optionally gzipped) file when the session ends.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// Options configures the memory backend.
type Options struct {
	OutputDir      string
	CompressOutput bool
}

// annotationTrack groups an annotation with its snapshot history.
type annotationTrack struct {
	annotation core.Annotation
	snapshots  []snapshot
}

type snapshot struct {
	at               time.Time
	distanceFromUser float64
	azimuth          float64
	verticalLevel    int
	active           bool
}

// Backend stores session data in memory and exports to JSON.
type Backend struct {
	opts    Options
	session *core.Session

	fixes       []core.LocationFix
	headings    []core.HeadingSample
	pitches     []core.PitchSample
	cycles      []core.LayoutCycle
	annotations map[string]*annotationTrack

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a memory backend.
func New(opts Options) *Backend {
	return &Backend{
		opts:        opts,
		annotations: make(map[string]*annotationTrack),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and resets all buffers.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.StartTime.IsZero() {
		s.StartTime = time.Now()
	}
	s.ID = 1
	b.session = s

	b.fixes = nil
	b.headings = nil
	b.pitches = nil
	b.cycles = nil
	b.annotations = make(map[string]*annotationTrack)
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the session data.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session in progress")
	}
	if b.session.EndTime.IsZero() {
		b.session.EndTime = time.Now()
	}
	return b.exportJSON()
}

// RecordLocationFix appends one accepted fix.
func (b *Backend) RecordLocationFix(f core.LocationFix) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixes = append(b.fixes, f)
	return nil
}

// RecordHeadingSample appends one compass reading.
func (b *Backend) RecordHeadingSample(h core.HeadingSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.headings = append(b.headings, h)
	return nil
}

// RecordPitchSample appends one pitch reading.
func (b *Backend) RecordPitchSample(p core.PitchSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pitches = append(b.pitches, p)
	return nil
}

// RecordLayoutCycle appends one layout pass.
func (b *Backend) RecordLayoutCycle(c core.LayoutCycle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cycles = append(b.cycles, c)
	return nil
}

// RecordAnnotationSnapshot appends the annotation's derived state to its
// track, registering the annotation on first sight.
func (b *Backend) RecordAnnotationSnapshot(a core.Annotation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	track, ok := b.annotations[a.ID]
	if !ok {
		track = &annotationTrack{annotation: a}
		b.annotations[a.ID] = track
	}
	track.snapshots = append(track.snapshots, snapshot{
		at:               time.Now(),
		distanceFromUser: a.DistanceFromUser,
		azimuth:          a.Azimuth,
		verticalLevel:    a.VerticalLevel,
		active:           a.Active,
	})
	return nil
}

// GetExportedFilePath returns the path of the last exported file.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported session for upload.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.session == nil {
		return core.UploadMetadata{}
	}
	return core.UploadMetadata{
		SessionName:     b.session.Name,
		DeviceModel:     b.session.DeviceModel,
		StartTime:       b.session.StartTime,
		DurationSeconds: b.session.EndTime.Sub(b.session.StartTime).Seconds(),
		FixCount:        len(b.fixes),
	}
}
