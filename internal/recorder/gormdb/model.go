package gormdb

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// SessionRecord is the parent row for one tracking session.
type SessionRecord struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"index"`
	DeviceModel string
	StartTime   time.Time
	EndTime     time.Time
}

// LocationFixRecord is one accepted location fix.
type LocationFixRecord struct {
	ID                 uint `gorm:"primarykey"`
	SessionID          uint `gorm:"index"`
	Latitude           float64
	Longitude          float64
	Altitude           float64
	HorizontalAccuracy float64
	Time               time.Time `gorm:"index"`
}

// HeadingSampleRecord is one compass reading.
type HeadingSampleRecord struct {
	ID          uint `gorm:"primarykey"`
	SessionID   uint `gorm:"index"`
	TrueHeading float64
	Time        time.Time `gorm:"index"`
}

// PitchSampleRecord is one smoothed pitch reading.
type PitchSampleRecord struct {
	ID          uint `gorm:"primarykey"`
	SessionID   uint `gorm:"index"`
	Pitch       float64
	Orientation string
	Time        time.Time `gorm:"index"`
}

// LayoutCycleRecord is one layout engine pass.
type LayoutCycleRecord struct {
	ID              uint `gorm:"primarykey"`
	SessionID       uint `gorm:"index"`
	ActiveCount     int
	CollisionPasses int
	DurationMicros  int64
	Time            time.Time `gorm:"index"`
}

// AnnotationSnapshotRecord captures an annotation's derived state at one
// point in a session. Attributes round-trips the annotation's opaque app
// data as JSON.
type AnnotationSnapshotRecord struct {
	ID               uint   `gorm:"primarykey"`
	SessionID        uint   `gorm:"index"`
	AnnotationID     string `gorm:"index"`
	Title            string
	Latitude         float64
	Longitude        float64
	Altitude         float64
	DistanceFromUser float64
	Azimuth          float64
	VerticalLevel    int
	Active           bool
	Attributes       datatypes.JSON
	Time             time.Time `gorm:"index"`
}

// DatabaseModels lists every table migrated by the gorm backend.
var DatabaseModels = []any{
	&SessionRecord{},
	&LocationFixRecord{},
	&HeadingSampleRecord{},
	&PitchSampleRecord{},
	&LayoutCycleRecord{},
	&AnnotationSnapshotRecord{},
}

// NewLocationFixRecord converts a core fix for persistence.
func NewLocationFixRecord(sessionID uint, f core.LocationFix) LocationFixRecord {
	return LocationFixRecord{
		SessionID:          sessionID,
		Latitude:           f.Location.Latitude,
		Longitude:          f.Location.Longitude,
		Altitude:           f.Location.Altitude,
		HorizontalAccuracy: f.HorizontalAccuracy,
		Time:               f.Timestamp,
	}
}

// NewHeadingSampleRecord converts a core heading sample for persistence.
func NewHeadingSampleRecord(sessionID uint, h core.HeadingSample) HeadingSampleRecord {
	return HeadingSampleRecord{
		SessionID:   sessionID,
		TrueHeading: h.TrueHeading,
		Time:        h.Timestamp,
	}
}

// NewPitchSampleRecord converts a core pitch sample for persistence.
func NewPitchSampleRecord(sessionID uint, p core.PitchSample) PitchSampleRecord {
	return PitchSampleRecord{
		SessionID:   sessionID,
		Pitch:       p.Pitch,
		Orientation: p.Orientation.String(),
		Time:        p.Timestamp,
	}
}

// NewLayoutCycleRecord converts a core layout cycle for persistence.
func NewLayoutCycleRecord(sessionID uint, c core.LayoutCycle) LayoutCycleRecord {
	return LayoutCycleRecord{
		SessionID:       sessionID,
		ActiveCount:     c.ActiveCount,
		CollisionPasses: c.CollisionPasses,
		DurationMicros:  c.Duration.Microseconds(),
		Time:            c.Time,
	}
}

// NewAnnotationSnapshotRecord converts an annotation's current state for
// persistence. Marshaling a map[string]string cannot fail, so the
// attributes column is always valid JSON.
func NewAnnotationSnapshotRecord(sessionID uint, a core.Annotation, at time.Time) AnnotationSnapshotRecord {
	attrs, _ := json.Marshal(a.Attributes)
	return AnnotationSnapshotRecord{
		SessionID:        sessionID,
		AnnotationID:     a.ID,
		Title:            a.Title,
		Latitude:         a.Location.Latitude,
		Longitude:        a.Location.Longitude,
		Altitude:         a.Location.Altitude,
		DistanceFromUser: a.DistanceFromUser,
		Azimuth:          a.Azimuth,
		VerticalLevel:    a.VerticalLevel,
		Active:           a.Active,
		Attributes:       datatypes.JSON(attrs),
		Time:             at,
	}
}
