package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// PROJECTED EXPORT
// Session tracks are exported in EPSG:3857 so the web debug map can draw
// them without a client-side projection step.

// Coord3857FromLocation projects a WGS84 location into web mercator.
func Coord3857FromLocation(l core.Location) (geom.Point, error) {
	if !ValidCoordinate(l) {
		return geom.NewEmptyPoint(geom.DimXYZ), ErrInvalidCoordinates
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(l.Longitude, l.Latitude, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    l.Altitude,
			Type: geom.DimXYZ,
		},
	)
}

// Track3857 projects an accepted-fix track into a web mercator line string.
// Fixes with invalid coordinates are skipped rather than failing the export.
func Track3857(fixes []core.LocationFix) (geom.LineString, error) {
	f := wgs84.EPSG().Transform(4326, 3857)
	coords := make([]float64, 0, len(fixes)*2)
	for _, fix := range fixes {
		if !ValidCoordinate(fix.Location) {
			continue
		}
		x, y, _ := f(fix.Location.Longitude, fix.Location.Latitude, 0)
		coords = append(coords, x, y)
	}
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}
