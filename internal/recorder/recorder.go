// Package recorder persists tracking sessions: the stream of accepted
// location fixes, heading and pitch samples, annotation snapshots and
// layout cycles, grouped under a session row.
package recorder

import (
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// Backend is the interface all session storage implementations satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. StartSession assigns the session ID on the
	// passed pointer.
	StartSession(s *core.Session) error
	EndSession() error

	// Sample recording
	RecordLocationFix(f core.LocationFix) error
	RecordHeadingSample(h core.HeadingSample) error
	RecordPitchSample(p core.PitchSample) error
	RecordLayoutCycle(c core.LayoutCycle) error
	RecordAnnotationSnapshot(a core.Annotation) error
}

// Uploadable is an optional interface for backends that produce files
// suitable for upload to the review server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
