package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

func startedSession(t *testing.T, opts Options) (*Backend, *core.Session) {
	t.Helper()
	b := New(opts)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	s := &core.Session{
		Name:        "morning walk",
		DeviceModel: "test-device",
		StartTime:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := b.StartSession(s); err != nil {
		t.Fatal(err)
	}
	return b, s
}

func TestStartSession_AssignsID(t *testing.T) {
	_, s := startedSession(t, Options{OutputDir: t.TempDir()})
	if s.ID == 0 {
		t.Error("StartSession must assign a session ID")
	}
}

func TestEndSession_WithoutStart(t *testing.T) {
	b := New(Options{OutputDir: t.TempDir()})
	if err := b.EndSession(); err == nil {
		t.Error("EndSession without a session must fail")
	}
}

func TestExport_JSON(t *testing.T) {
	dir := t.TempDir()
	b, _ := startedSession(t, Options{OutputDir: dir})

	fixTime := time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC)
	b.RecordLocationFix(core.LocationFix{
		Location:           core.Location{Latitude: 48.2, Longitude: 16.3, Altitude: 170},
		HorizontalAccuracy: 8,
		Timestamp:          fixTime,
	})
	b.RecordHeadingSample(core.HeadingSample{TrueHeading: 42, Timestamp: fixTime})
	b.RecordPitchSample(core.PitchSample{Pitch: 3.5, Timestamp: fixTime})
	b.RecordLayoutCycle(core.LayoutCycle{
		Time: fixTime, ActiveCount: 7, CollisionPasses: 2, Duration: 800 * time.Microsecond,
	})
	b.RecordAnnotationSnapshot(core.Annotation{
		ID:       "poi-1",
		Title:    "Cafe",
		Location: core.Location{Latitude: 48.21, Longitude: 16.31},
		Attributes: map[string]string{
			"kind": "food",
		},
		DistanceFromUser: 120,
		Azimuth:          88,
		VerticalLevel:    1,
		Active:           true,
	})

	if err := b.EndSession(); err != nil {
		t.Fatalf("EndSession() error: %v", err)
	}

	path := b.GetExportedFilePath()
	if path == "" {
		t.Fatal("export path not set")
	}
	if filepath.Dir(path) != dir {
		t.Errorf("export written outside output dir: %s", path)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("uncompressed export must end in .json: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var export sessionExport
	if err := json.NewDecoder(f).Decode(&export); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if export.SessionName != "morning walk" {
		t.Errorf("wrong session name: %q", export.SessionName)
	}
	if len(export.Fixes) != 1 || len(export.Headings) != 1 ||
		len(export.Pitches) != 1 || len(export.Cycles) != 1 {
		t.Errorf("sample counts wrong: %d fixes, %d headings, %d pitches, %d cycles",
			len(export.Fixes), len(export.Headings), len(export.Pitches), len(export.Cycles))
	}
	if len(export.Annotations) != 1 {
		t.Fatalf("expected 1 annotation track, got %d", len(export.Annotations))
	}
	ann := export.Annotations[0]
	if ann.ID != "poi-1" || ann.Attrs["kind"] != "food" || len(ann.Snapshots) != 1 {
		t.Errorf("annotation track wrong: %+v", ann)
	}
}

func TestExport_Gzip(t *testing.T) {
	dir := t.TempDir()
	b, _ := startedSession(t, Options{OutputDir: dir, CompressOutput: true})

	b.RecordLocationFix(core.LocationFix{
		Location:  core.Location{Latitude: 1, Longitude: 2},
		Timestamp: time.Now(),
	})

	if err := b.EndSession(); err != nil {
		t.Fatal(err)
	}

	path := b.GetExportedFilePath()
	if !strings.HasSuffix(path, ".json.gz") {
		t.Fatalf("compressed export must end in .json.gz: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("export is not gzip: %v", err)
	}
	var export sessionExport
	if err := json.NewDecoder(gz).Decode(&export); err != nil {
		t.Fatalf("compressed export is not valid JSON: %v", err)
	}
	if len(export.Fixes) != 1 {
		t.Errorf("expected 1 fix, got %d", len(export.Fixes))
	}
}

func TestExport_FilenameSanitized(t *testing.T) {
	dir := t.TempDir()
	b := New(Options{OutputDir: dir})
	s := &core.Session{
		Name:      "walk: downtown loop",
		StartTime: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	b.StartSession(s)

	if err := b.EndSession(); err != nil {
		t.Fatal(err)
	}

	base := filepath.Base(b.GetExportedFilePath())
	if strings.ContainsAny(base, " :") {
		t.Errorf("filename must not contain spaces or colons: %q", base)
	}
}

func TestGetExportMetadata(t *testing.T) {
	b, s := startedSession(t, Options{OutputDir: t.TempDir()})
	b.RecordLocationFix(core.LocationFix{Timestamp: time.Now()})
	b.RecordLocationFix(core.LocationFix{Timestamp: time.Now()})

	if err := b.EndSession(); err != nil {
		t.Fatal(err)
	}

	meta := b.GetExportMetadata()
	if meta.SessionName != s.Name || meta.DeviceModel != s.DeviceModel {
		t.Errorf("metadata identity wrong: %+v", meta)
	}
	if meta.FixCount != 2 {
		t.Errorf("expected FixCount 2, got %d", meta.FixCount)
	}
	if meta.DurationSeconds < 0 {
		t.Errorf("negative duration: %f", meta.DurationSeconds)
	}
}

func TestStartSession_ResetsBuffers(t *testing.T) {
	b, _ := startedSession(t, Options{OutputDir: t.TempDir()})
	b.RecordLocationFix(core.LocationFix{Timestamp: time.Now()})
	if err := b.EndSession(); err != nil {
		t.Fatal(err)
	}

	b.StartSession(&core.Session{Name: "second", StartTime: time.Now()})
	if err := b.EndSession(); err != nil {
		t.Fatal(err)
	}

	meta := b.GetExportMetadata()
	if meta.FixCount != 0 {
		t.Errorf("second session must start empty, got %d fixes", meta.FixCount)
	}
}
