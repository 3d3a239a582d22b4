package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sessionExport is the root JSON structure.
type sessionExport struct {
	SessionName string             `json:"sessionName"`
	DeviceModel string             `json:"deviceModel"`
	StartTime   string             `json:"startTime"`
	EndTime     string             `json:"endTime"`
	Fixes       [][]any            `json:"fixes"`
	Headings    [][]any            `json:"headings"`
	Pitches     [][]any            `json:"pitches"`
	Cycles      [][]any            `json:"layoutCycles"`
	Annotations []annotationExport `json:"annotations"`
}

// annotationExport is one annotation with its snapshot history. Snapshots
// are positional arrays to keep large exports compact.
type annotationExport struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Altitude  float64           `json:"altitude,omitempty"`
	Attrs     map[string]string `json:"attributes,omitempty"`
	Snapshots [][]any           `json:"snapshots"`
}

// exportJSON writes the session data to a JSON file, gzipped when
// configured. Caller holds the lock.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := strings.ReplaceAll(b.session.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.opts.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.opts.OutputDir, filename)

	if err := os.MkdirAll(b.opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.opts.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() sessionExport {
	export := sessionExport{
		SessionName: b.session.Name,
		DeviceModel: b.session.DeviceModel,
		StartTime:   b.session.StartTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		EndTime:     b.session.EndTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Fixes:       make([][]any, 0, len(b.fixes)),
		Headings:    make([][]any, 0, len(b.headings)),
		Pitches:     make([][]any, 0, len(b.pitches)),
		Cycles:      make([][]any, 0, len(b.cycles)),
		Annotations: make([]annotationExport, 0, len(b.annotations)),
	}

	for _, f := range b.fixes {
		export.Fixes = append(export.Fixes, []any{
			f.Timestamp.UnixMilli(),
			f.Location.Latitude,
			f.Location.Longitude,
			f.Location.Altitude,
			f.HorizontalAccuracy,
		})
	}
	for _, h := range b.headings {
		export.Headings = append(export.Headings, []any{
			h.Timestamp.UnixMilli(),
			h.TrueHeading,
		})
	}
	for _, p := range b.pitches {
		export.Pitches = append(export.Pitches, []any{
			p.Timestamp.UnixMilli(),
			p.Pitch,
			p.Orientation.String(),
		})
	}
	for _, c := range b.cycles {
		export.Cycles = append(export.Cycles, []any{
			c.Time.UnixMilli(),
			c.ActiveCount,
			c.CollisionPasses,
			c.Duration.Microseconds(),
		})
	}
	for _, track := range b.annotations {
		a := annotationExport{
			ID:        track.annotation.ID,
			Title:     track.annotation.Title,
			Latitude:  track.annotation.Location.Latitude,
			Longitude: track.annotation.Location.Longitude,
			Altitude:  track.annotation.Location.Altitude,
			Attrs:     track.annotation.Attributes,
			Snapshots: make([][]any, 0, len(track.snapshots)),
		}
		for _, s := range track.snapshots {
			a.Snapshots = append(a.Snapshots, []any{
				s.at.UnixMilli(),
				s.distanceFromUser,
				s.azimuth,
				s.verticalLevel,
				boolToInt(s.active),
			})
		}
		export.Annotations = append(export.Annotations, a)
	}

	return export
}

func (b *Backend) writeJSON(path string, export sessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func (b *Backend) writeGzipJSON(path string, export sessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(export); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gz.Close()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
