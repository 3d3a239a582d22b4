// Package camera manages the capture-session plumbing behind the overlay.
// The overlay core keeps working on location and heading alone when the
// session cannot be set up, so all failures here are reported once, with a
// reason, and never retried automatically.
package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SetupFailureReason distinguishes why session setup failed.
type SetupFailureReason int

const (
	// FailureNone means setup succeeded.
	FailureNone SetupFailureReason = iota
	// FailureNoDevice means no rear capture device exists on this hardware.
	FailureNoDevice
	// FailureInputCreation means the device exists but an input could not
	// be created from it.
	FailureInputCreation
	// FailureInputRejected means the session refused to accept the input.
	FailureInputRejected
)

func (r SetupFailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureNoDevice:
		return "noDevice"
	case FailureInputCreation:
		return "inputCreationFailed"
	case FailureInputRejected:
		return "inputRejected"
	default:
		return "unknown"
	}
}

// SetupError carries the failure reason alongside the underlying cause.
type SetupError struct {
	Reason SetupFailureReason
	Err    error
}

func (e *SetupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("camera setup failed: %s", e.Reason)
	}
	return fmt.Sprintf("camera setup failed: %s: %v", e.Reason, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// ReasonOf extracts the failure reason from an error returned by Setup.
func ReasonOf(err error) SetupFailureReason {
	var se *SetupError
	if errors.As(err, &se) {
		return se.Reason
	}
	return FailureNone
}

// Device is one capture device as exposed by the platform layer.
type Device interface {
	ID() string
}

// Input is a configured capture input wrapping a device.
type Input interface {
	Device() Device
}

// Provider abstracts the platform capture stack. Implementations live in
// the host application; tests inject fakes.
type Provider interface {
	// RearDevice returns the rear-facing capture device, or nil when the
	// hardware has none.
	RearDevice() Device
	// CreateInput builds a capture input from a device.
	CreateInput(d Device) (Input, error)
	// CanAddInput reports whether the underlying session accepts the input.
	CanAddInput(in Input) bool
	// AddInput attaches the input to the underlying session.
	AddInput(in Input)
	// Start and Stop control the underlying capture session.
	Start()
	Stop()
}

// Session owns the capture-session lifecycle.
type Session struct {
	mu       sync.Mutex
	provider Provider
	logger   *slog.Logger
	input    Input
	running  bool
}

// NewSession wraps a provider. A nil logger selects slog.Default.
func NewSession(provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{provider: provider, logger: logger}
}

// Setup locates the rear device, creates an input and attaches it. It is
// called once; on failure the overlay renders without a camera feed.
func (s *Session) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev := s.provider.RearDevice()
	if dev == nil {
		s.logger.Warn("camera setup failed", "reason", FailureNoDevice.String())
		return &SetupError{Reason: FailureNoDevice}
	}

	in, err := s.provider.CreateInput(dev)
	if err != nil {
		s.logger.Warn("camera setup failed",
			"reason", FailureInputCreation.String(), "device", dev.ID(), "error", err)
		return &SetupError{Reason: FailureInputCreation, Err: err}
	}

	if !s.provider.CanAddInput(in) {
		s.logger.Warn("camera setup failed",
			"reason", FailureInputRejected.String(), "device", dev.ID())
		return &SetupError{Reason: FailureInputRejected}
	}

	s.provider.AddInput(in)
	s.input = in
	s.logger.Info("camera session configured", "device", dev.ID())
	return nil
}

// Start begins capture. Without a configured input it is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input == nil || s.running {
		return
	}
	s.provider.Start()
	s.running = true
}

// Stop halts capture.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.provider.Stop()
	s.running = false
}

// Running reports whether capture is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
