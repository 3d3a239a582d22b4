// arsim runs a simulated AR overlay session end to end: it wires the
// config, logging, recorder, metrics and monitor stacks, feeds a
// synthetic walk and compass sweep through the tracker, and exports the
// recorded session when the walk ends.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/javaboyjunior/HDAugmentedReality/internal/api"
	"github.com/javaboyjunior/HDAugmentedReality/internal/camera"
	"github.com/javaboyjunior/HDAugmentedReality/internal/config"
	"github.com/javaboyjunior/HDAugmentedReality/internal/dispatcher"
	"github.com/javaboyjunior/HDAugmentedReality/internal/influx"
	"github.com/javaboyjunior/HDAugmentedReality/internal/logging"
	"github.com/javaboyjunior/HDAugmentedReality/internal/monitor"
	"github.com/javaboyjunior/HDAugmentedReality/internal/recorder"
	"github.com/javaboyjunior/HDAugmentedReality/internal/tracker"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/ar"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

const AppName = "arsim"

var (
	SessionStartTime = time.Now()

	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	controller      *ar.Controller
	eventDispatcher *dispatcher.Dispatcher
	backend         recorder.Backend
	influxManager   *influx.Manager
	monitorService  *monitor.Service

	sessionName string
)

func main() {
	configDir := flag.String("config", ".", "directory containing hdar.cfg.json")
	steps := flag.Int("steps", 120, "simulation steps")
	stepInterval := flag.Duration("interval", 50*time.Millisecond, "time between simulation steps")
	statusPath := flag.String("status", "arsim.status.json", "status snapshot file")
	flag.Parse()

	if err := run(*configDir, *steps, *stepInterval, *statusPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string, steps int, stepInterval time.Duration, statusPath string) error {
	if err := config.Load(configDir); err != nil {
		fmt.Fprintf(os.Stderr, "no config file loaded, using defaults: %v\n", err)
	}

	logFile, err := setupLogging()
	if err != nil {
		return err
	}
	defer func() {
		_ = SlogManager.Close()
		_ = logFile.Close()
	}()

	zlog := zerolog.New(logFile).With().Timestamp().Logger()

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	backend, err = recorder.NewBackend(zlog)
	if err != nil {
		return fmt.Errorf("creating recorder backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing recorder backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(zlog,
			filepath.Join(viper.GetString("logsDir"), "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("influx unavailable", "error", err)
			influxManager = nil
		} else {
			defer func() { _ = influxManager.Close() }()
		}
	}

	sessionName = fmt.Sprintf("%s %s", AppName, SessionStartTime.Format("20060102_150405"))
	registerHandlers()

	controller = ar.NewController(ar.Options{
		MaxVerticalLevel:       viper.GetInt("engine.maxVerticalLevel"),
		MaxVisibleAnnotations:  viper.GetInt("engine.maxVisibleAnnotations"),
		MaxDistance:            viper.GetFloat64("engine.maxDistance"),
		HeadingSmoothingFactor: viper.GetFloat64("engine.headingSmoothingFactor"),
		ViewWidth:              viper.GetFloat64("engine.annotationViewWidth"),
		ViewHeight:             viper.GetFloat64("engine.annotationViewHeight"),
		Tracker: tracker.Options{
			ReloadDistanceFilter: viper.GetFloat64("tracker.reloadDistanceFilter"),
			ZeroAltitude:         viper.GetBool("tracker.zeroAltitude"),
			Logger:               Logger,
		},
		Dispatcher: eventDispatcher,
		Recorder:   backend,
		Logger:     Logger,
	})

	// The simulator has no capture hardware; the overlay keeps working on
	// location and heading alone.
	cam := camera.NewSession(headlessProvider{}, Logger)
	if err := cam.Setup(); err != nil {
		Logger.Info("running without camera feed", "reason", camera.ReasonOf(err).String())
	}
	cam.Start()
	defer cam.Stop()

	session := &core.Session{
		Name:        sessionName,
		DeviceModel: "arsim-headless",
		StartTime:   SessionStartTime,
	}
	if err := backend.StartSession(session); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	eventDispatcher.Emit(dispatcher.EventSessionStarted, *session)

	monitorService = monitor.NewService(monitorSources(), statusPath, Logger)
	if err := monitorService.Start(); err != nil {
		return err
	}
	defer monitorService.Stop()

	controller.Start(viper.GetBool("tracker.notifyFailureOnTimeout"))

	fixes := runSimulation(controller, steps, stepInterval)

	controller.Stop()
	if err := backend.EndSession(); err != nil {
		Logger.Error("ending session failed", "error", err)
	}
	eventDispatcher.Emit(dispatcher.EventSessionEnded, *session)

	if err := exportTrack(fixes); err != nil {
		Logger.Warn("track export failed", "error", err)
	}
	uploadExport()

	Logger.Info("session complete", "fixes", len(fixes), "steps", steps)
	return nil
}

func setupLogging() (*os.File, error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	SlogManager = logging.NewSlogManager()
	opts := logging.Options{
		Level:    viper.GetString("logLevel"),
		File:     logFile,
		Facility: AppName,
		Context:  logContext,
	}
	if viper.GetBool("graylog.enabled") {
		opts.GraylogAddress = viper.GetString("graylog.address")
	}
	// A Graylog dial failure degrades to console/file logging.
	_ = SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	Logger.Info("logging to file", "path", logPath)
	return logFile, nil
}

// logContext stamps dynamic state on every log record.
func logContext() []slog.Attr {
	attrs := []slog.Attr{slog.String("session", sessionName)}
	if controller != nil {
		attrs = append(attrs, slog.String("trackerState", controller.Tracker().State().String()))
	}
	return attrs
}

func registerHandlers() {
	eventDispatcher.Register(dispatcher.EventLayoutCycle, func(e dispatcher.Event) error {
		cycle, ok := e.Payload.(core.LayoutCycle)
		if !ok {
			return fmt.Errorf("unexpected layout cycle payload: %T", e.Payload)
		}
		if influxManager != nil {
			return influxManager.WriteLayoutCycle(context.Background(), sessionName, cycle)
		}
		return nil
	}, dispatcher.Buffered(64))

	eventDispatcher.Register(dispatcher.EventLocationReload, func(e dispatcher.Event) error {
		Logger.Info("reload distance exceeded, annotation data refreshed")
		return nil
	})

	eventDispatcher.Register(dispatcher.EventLocationFailing, func(e dispatcher.Event) error {
		if sf, ok := e.Payload.(ar.SearchFailing); ok {
			Logger.Warn("still searching for location",
				"elapsed", sf.Elapsed, "everFound", sf.EverFoundLocation)
		}
		return nil
	}, dispatcher.Logged())

	eventDispatcher.Register(dispatcher.EventSessionStarted, func(e dispatcher.Event) error {
		Logger.Info("session started")
		return nil
	})
	eventDispatcher.Register(dispatcher.EventSessionEnded, func(e dispatcher.Event) error {
		Logger.Info("session ended")
		return nil
	})
}

func monitorSources() monitor.Sources {
	sources := monitor.Sources{
		TrackerState: func() string { return controller.Tracker().State().String() },
		Heading:      func() float64 { return controller.SmoothedHeading() },
		AnnotationCount: func() (int, int) {
			return controller.ActiveCount()
		},
		LastLayoutCycle: func() core.LayoutCycle { return controller.LastLayoutCycle() },
	}
	if counter, ok := backend.(interface{ PendingCount() int }); ok {
		sources.PendingRecords = counter.PendingCount
	}
	return sources
}

// uploadExport pushes the exported session file to the review server when
// the memory backend produced one and an API key is configured.
func uploadExport() {
	up, ok := backend.(recorder.Uploadable)
	if !ok || up.GetExportedFilePath() == "" {
		return
	}
	apiKey := viper.GetString("api.apiKey")
	if apiKey == "" {
		Logger.Debug("no api key configured, skipping upload")
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), apiKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Info("review server offline, skipping upload", "error", err)
		return
	}
	if err := client.Upload(up.GetExportedFilePath(), up.GetExportMetadata()); err != nil {
		Logger.Error("session upload failed", "error", err)
		return
	}
	Logger.Info("session uploaded", "file", up.GetExportedFilePath())
}

// headlessProvider is the no-hardware capture stack: there is no rear
// device, so camera setup always reports noDevice.
type headlessProvider struct{}

func (headlessProvider) RearDevice() camera.Device { return nil }

func (headlessProvider) CreateInput(camera.Device) (camera.Input, error) {
	return nil, fmt.Errorf("no capture hardware")
}

func (headlessProvider) CanAddInput(camera.Input) bool { return false }
func (headlessProvider) AddInput(camera.Input)         {}
func (headlessProvider) Start()                        {}
func (headlessProvider) Stop()                         {}
