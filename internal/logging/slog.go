package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Options configures SlogManager.Setup.
type Options struct {
	// Level is the textual minimum level: debug, info, warn or error.
	Level string
	// File receives a copy of every record when non-nil.
	File io.Writer
	// GraylogAddress enables the GELF handler when non-empty (host:port,
	// UDP).
	GraylogAddress string
	// Facility tags GELF messages.
	Facility string
	// Context supplies dynamic per-record attributes (session id, tracker
	// state).
	Context ContextProvider
}

// SlogManager owns the composed slog logger.
type SlogManager struct {
	logger *slog.Logger
	gelf   *GELFHandler
}

// NewSlogManager creates an unconfigured manager. Logger() falls back to
// slog.Default until Setup runs.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup composes the console, file and optional Graylog handlers. A
// Graylog dial failure degrades to console/file logging and is reported
// in the returned error.
func (m *SlogManager) Setup(opts Options) error {
	lvl := parseLevel(opts.Level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))

	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	}

	var gelfErr error
	if opts.GraylogAddress != "" {
		gh, err := NewGELFHandler(opts.GraylogAddress, opts.Facility, lvl)
		if err != nil {
			gelfErr = err
		} else {
			m.gelf = gh
			handlers = append(handlers, gh)
		}
	}

	var root slog.Handler = NewMultiHandler(handlers...)
	if opts.Context != nil {
		root = NewContextHandler(root, opts.Context)
	}

	m.logger = slog.New(root)
	m.logger.Info("logging initialized",
		"level", opts.Level, "graylog", opts.GraylogAddress != "" && gelfErr == nil)
	if gelfErr != nil {
		m.logger.Warn("graylog unavailable, continuing without it", "error", gelfErr)
	}
	return gelfErr
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close shuts down the Graylog connection if one was opened.
func (m *SlogManager) Close() error {
	if m.gelf != nil {
		return m.gelf.Close()
	}
	return nil
}
