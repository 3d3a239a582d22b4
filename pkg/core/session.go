package core

import "time"

// Session identifies one recorded tracking session.
type Session struct {
	ID          uint
	Name        string
	DeviceModel string
	StartTime   time.Time
	EndTime     time.Time
}

// LayoutCycle is one pass of the layout engine, recorded for performance
// review.
type LayoutCycle struct {
	Time            time.Time
	ActiveCount     int
	CollisionPasses int
	Duration        time.Duration
}

// PitchSample is a smoothed pitch reading paired with the orientation it
// was derived under.
type PitchSample struct {
	Pitch       float64
	Orientation DeviceOrientation
	Timestamp   time.Time
}

// UploadMetadata describes an exported session file for the review server.
type UploadMetadata struct {
	SessionName     string
	DeviceModel     string
	StartTime       time.Time
	DurationSeconds float64
	FixCount        int
}
