// Package monitor periodically snapshots the overlay's runtime state
// (tracker, annotation counts, recorder backlog, last layout pass) and
// writes it to a status file for external inspection.
package monitor

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// DefaultInterval is the snapshot period.
const DefaultInterval = time.Second

// Status is one runtime snapshot.
type Status struct {
	Time            time.Time `json:"time"`
	TrackerState    string    `json:"trackerState"`
	Heading         float64   `json:"heading"`
	AnnotationCount int       `json:"annotationCount"`
	ActiveCount     int       `json:"activeCount"`
	PendingRecords  int       `json:"pendingRecords"`

	LastLayoutTime       time.Time `json:"lastLayoutTime"`
	LastLayoutActive     int       `json:"lastLayoutActive"`
	LastLayoutDurationUs int64     `json:"lastLayoutDurationUs"`
}

// Sources supplies the live values sampled into each snapshot. Nil
// functions read as zero.
type Sources struct {
	TrackerState    func() string
	Heading         func() float64
	AnnotationCount func() (total, active int)
	PendingRecords  func() int
	LastLayoutCycle func() core.LayoutCycle
}

// Service manages status monitoring.
type Service struct {
	sources    Sources
	logger     *slog.Logger
	statusPath string
	interval   time.Duration

	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
}

// NewService creates a monitor writing snapshots to statusPath. An empty
// path keeps snapshots in memory only (Snapshot still works).
func NewService(sources Sources, statusPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sources:    sources,
		logger:     logger,
		statusPath: statusPath,
		interval:   DefaultInterval,
	}
}

// SetInterval overrides the snapshot period. Must be called before Start.
func (s *Service) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot samples all sources once.
func (s *Service) Snapshot() Status {
	st := Status{Time: time.Now()}
	if s.sources.TrackerState != nil {
		st.TrackerState = s.sources.TrackerState()
	}
	if s.sources.Heading != nil {
		st.Heading = s.sources.Heading()
	}
	if s.sources.AnnotationCount != nil {
		st.AnnotationCount, st.ActiveCount = s.sources.AnnotationCount()
	}
	if s.sources.PendingRecords != nil {
		st.PendingRecords = s.sources.PendingRecords()
	}
	if s.sources.LastLayoutCycle != nil {
		c := s.sources.LastLayoutCycle()
		st.LastLayoutTime = c.Time
		st.LastLayoutActive = c.ActiveCount
		st.LastLayoutDurationUs = c.Duration.Microseconds()
	}
	return st
}

// Start launches the snapshot goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.logger.Debug("status monitor started", "path", s.statusPath)

		var statusFile *os.File
		if s.statusPath != "" {
			var err error
			statusFile, err = os.Create(s.statusPath)
			if err != nil {
				s.logger.Error("error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.Snapshot()
				if statusFile == nil {
					continue
				}
				data, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					s.logger.Error("error encoding status", "error", err)
					continue
				}
				statusFile.Truncate(0)
				statusFile.Seek(0, 0)
				statusFile.Write(append(data, '\n'))
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
