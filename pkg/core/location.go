package core

import "time"

// Location is a WGS84 coordinate with optional altitude in meters.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// LocationFix is a single location reading from the platform location service.
type LocationFix struct {
	Location           Location
	HorizontalAccuracy float64 // meters, negative means unknown
	Timestamp          time.Time
}

// HeadingSample is a single compass reading.
type HeadingSample struct {
	TrueHeading float64 // degrees, 0 = north
	Timestamp   time.Time
}

// AccelSample is a raw accelerometer reading in device axes, in g.
type AccelSample struct {
	X float64
	Y float64
	Z float64
}

// DeviceOrientation selects the axis mapping used when deriving pitch
// from accelerometer data.
type DeviceOrientation int

const (
	OrientationPortrait DeviceOrientation = iota
	OrientationPortraitUpsideDown
	OrientationLandscapeLeft
	OrientationLandscapeRight
)

// String returns the orientation name for logs and status output.
func (o DeviceOrientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationPortraitUpsideDown:
		return "portraitUpsideDown"
	case OrientationLandscapeLeft:
		return "landscapeLeft"
	case OrientationLandscapeRight:
		return "landscapeRight"
	default:
		return "unknown"
	}
}
