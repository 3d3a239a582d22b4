package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/javaboyjunior/HDAugmentedReality/internal/geo"
	"github.com/javaboyjunior/HDAugmentedReality/internal/layout"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/ar"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// simViewport is the phone-sized viewport the simulated frames use.
var simViewport = layout.Viewport{Width: 390, Height: 844}

// walkStart anchors the synthetic walk.
var walkStart = core.Location{Latitude: 47.0502, Longitude: 8.3093, Altitude: 436}

// metersPerDegreeLat is the walk's latitude step conversion.
const metersPerDegreeLat = 111320.0

// buildAnnotations places a ring of points of interest around the walk
// start, between 100 and 400 meters out.
func buildAnnotations(center core.Location) []*core.Annotation {
	kinds := []string{"cafe", "museum", "fountain", "viewpoint"}

	annotations := make([]*core.Annotation, 0, 12)
	for i := 0; i < 12; i++ {
		bearing := float64(i) * 30.0
		radius := 100.0 + float64(i%4)*100.0

		rad := bearing * math.Pi / 180.0
		dLat := radius * math.Cos(rad) / metersPerDegreeLat
		dLon := radius * math.Sin(rad) / (metersPerDegreeLat * math.Cos(center.Latitude*math.Pi/180.0))

		kind := kinds[i%len(kinds)]
		annotations = append(annotations, &core.Annotation{
			ID:    fmt.Sprintf("poi-%02d", i),
			Title: fmt.Sprintf("%s %d", kind, i),
			Location: core.Location{
				Latitude:  center.Latitude + dLat,
				Longitude: center.Longitude + dLon,
				Altitude:  center.Altitude,
			},
			Attributes: map[string]string{"kind": kind},
		})
	}
	return annotations
}

// runSimulation walks north at roughly 1.4 m per step while the compass
// sweeps a full circle, ticking one frame per step. Returns the fixes fed
// to the tracker, for the projected track export.
func runSimulation(ctrl *ar.Controller, steps int, interval time.Duration) []core.LocationFix {
	fixes := make([]core.LocationFix, 0, steps)

	// First fix before the annotation set, so the initial full reload has
	// a location to derive geometry from.
	first := core.LocationFix{
		Location:           walkStart,
		HorizontalAccuracy: 5,
		Timestamp:          time.Now(),
	}
	ctrl.Tracker().SetOrientation(core.OrientationPortrait)
	ctrl.Tracker().ProcessLocationFix(first)
	fixes = append(fixes, first)

	ctrl.SetAnnotations(buildAnnotations(walkStart))
	Logger.Info("annotation set loaded", "count", len(ctrl.Annotations()))

	for i := 0; i < steps; i++ {
		heading := math.Mod(float64(i)*3.0, 360.0)
		ctrl.Tracker().ProcessHeading(heading)

		// Upright portrait with a little sway.
		ctrl.Tracker().ProcessAccelerometer(core.AccelSample{
			X: 0.05 * math.Sin(float64(i)/7.0),
			Y: -1,
			Z: -0.1,
		})

		fix := core.LocationFix{
			Location: core.Location{
				Latitude:  walkStart.Latitude + 1.4*float64(i+1)/metersPerDegreeLat,
				Longitude: walkStart.Longitude,
				Altitude:  walkStart.Altitude,
			},
			HorizontalAccuracy: 5,
			Timestamp:          time.Now(),
		}
		ctrl.Tracker().ProcessLocationFix(fix)
		fixes = append(fixes, fix)

		frame := ctrl.Tick(simViewport)
		if i%10 == 0 {
			Logger.Info("frame",
				"step", i,
				"heading", fmt.Sprintf("%.1f", frame.Heading),
				"pitch", fmt.Sprintf("%.1f", frame.Pitch),
				"visible", visibleCount(frame),
				"attached", len(frame.Attached),
				"detached", len(frame.Detached))
		}

		time.Sleep(interval)
	}
	return fixes
}

func visibleCount(frame ar.Frame) int {
	n := 0
	for _, p := range frame.Placements {
		if p.Visible {
			n++
		}
	}
	return n
}

// exportTrack writes the walked track as an EPSG:3857 WKT line string
// next to the logs, for the web debug map.
func exportTrack(fixes []core.LocationFix) error {
	if len(fixes) == 0 {
		return nil
	}
	track, err := geo.Track3857(fixes)
	if err != nil {
		return err
	}
	path := filepath.Join(viper.GetString("logsDir"), "arsim_track_3857.wkt")
	if err := os.WriteFile(path, []byte(track.AsText()), 0644); err != nil {
		return err
	}
	Logger.Info("projected track exported", "path", path, "fixes", len(fixes))
	return nil
}
