package geo

import (
	"errors"
	"math"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

const (
	// EarthRadiusMeters is the mean earth radius used by the haversine distance.
	EarthRadiusMeters = 6371000.0

	// LatLonFactor scales the latitude delta in the flat-earth azimuth
	// approximation. The value is part of the wire-compatible behaviour of
	// the layout engine and must not change.
	LatLonFactor = 1.33975031663018

	// DegreesPerScreen is how many degrees of azimuth one viewport width
	// spans, so the full 360 overlay wraps after 360/DegreesPerScreen
	// screen widths.
	DegreesPerScreen = 30.0

	// MinAnnotationWidthDegrees is the floor for the assumed on-screen
	// angular width of one annotation view during collision checks.
	MinAnnotationWidthDegrees = 5.0
)

// ValidCoordinate reports whether a location holds a usable WGS84 coordinate.
func ValidCoordinate(l core.Location) bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return false
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return false
	}
	return true
}

// DegreesToRadians converts degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadiansToDegrees converts radians to degrees.
func RadiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// NormalizeDegrees wraps an angle into [0,360).
func NormalizeDegrees(deg float64) float64 {
	m := math.Mod(deg, 360.0)
	if m < 0 {
		m += 360.0
	}
	return m
}

// DistanceMeters returns the great-circle distance between two locations
// using the haversine formula. Altitude is ignored.
func DistanceMeters(a, b core.Location) float64 {
	lat1 := DegreesToRadians(a.Latitude)
	lat2 := DegreesToRadians(b.Latitude)
	dLat := DegreesToRadians(b.Latitude - a.Latitude)
	dLon := DegreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Azimuth returns the compass bearing in degrees [0,360) from the user to
// the target. This is deliberately a flat-earth approximation rather than a
// spherical bearing: the longitude and latitude deltas are combined through
// atan2 with the latitude delta scaled by LatLonFactor, then rotated 180 so
// that 0 means north.
func Azimuth(user, target core.Location) float64 {
	latDist := user.Latitude - target.Latitude
	lonDist := user.Longitude - target.Longitude
	az := RadiansToDegrees(math.Atan2(lonDist, latDist*LatLonFactor)) + 180.0
	return NormalizeDegrees(az)
}

// AngularDelta returns the signed smallest rotation from one angle to
// another, in degrees. The result is always in (-180,180]; positive means
// clockwise.
func AngularDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360.0)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// PixelsPerDegree returns the horizontal pixel density of the overlay for a
// given viewport width, from the DegreesPerScreen design rule.
func PixelsPerDegree(viewportWidth float64) float64 {
	return viewportWidth / DegreesPerScreen
}

// OverlayWidth returns the full width in pixels of the 360 degree overlay.
func OverlayWidth(pixelsPerDegree float64) float64 {
	return 360.0 * pixelsPerDegree
}

// DegreesToPixels maps an angular span onto overlay pixels.
func DegreesToPixels(degrees, pixelsPerDegree float64) float64 {
	return degrees * pixelsPerDegree
}

// PixelsToDegrees maps an overlay pixel span back to degrees.
func PixelsToDegrees(pixels, pixelsPerDegree float64) float64 {
	if pixelsPerDegree == 0 {
		return 0
	}
	return pixels / pixelsPerDegree
}
