package camera

import (
	"errors"
	"testing"
)

type fakeDevice struct{ id string }

func (d *fakeDevice) ID() string { return d.id }

type fakeInput struct{ dev Device }

func (i *fakeInput) Device() Device { return i.dev }

type fakeProvider struct {
	device      Device
	createErr   error
	rejectInput bool

	added   []Input
	started int
	stopped int
}

func (p *fakeProvider) RearDevice() Device { return p.device }

func (p *fakeProvider) CreateInput(d Device) (Input, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &fakeInput{dev: d}, nil
}

func (p *fakeProvider) CanAddInput(Input) bool { return !p.rejectInput }

func (p *fakeProvider) AddInput(in Input) { p.added = append(p.added, in) }

func (p *fakeProvider) Start() { p.started++ }

func (p *fakeProvider) Stop() { p.stopped++ }

func TestSetup_Success(t *testing.T) {
	p := &fakeProvider{device: &fakeDevice{id: "rear"}}
	s := NewSession(p, nil)

	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if len(p.added) != 1 {
		t.Errorf("expected one input attached, got %d", len(p.added))
	}
}

func TestSetup_FailureReasons(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
		want     SetupFailureReason
	}{
		{"no device", &fakeProvider{}, FailureNoDevice},
		{"input creation", &fakeProvider{
			device:    &fakeDevice{id: "rear"},
			createErr: errors.New("device busy"),
		}, FailureInputCreation},
		{"input rejected", &fakeProvider{
			device:      &fakeDevice{id: "rear"},
			rejectInput: true,
		}, FailureInputRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(tc.provider, nil)
			err := s.Setup()
			if err == nil {
				t.Fatal("expected setup error")
			}
			if got := ReasonOf(err); got != tc.want {
				t.Errorf("reason = %v, want %v", got, tc.want)
			}
			if len(tc.provider.added) != 0 {
				t.Error("failed setup must not attach an input")
			}
		})
	}
}

func TestSetup_WrapsCause(t *testing.T) {
	cause := errors.New("device busy")
	p := &fakeProvider{device: &fakeDevice{id: "rear"}, createErr: cause}
	s := NewSession(p, nil)

	err := s.Setup()
	if !errors.Is(err, cause) {
		t.Errorf("setup error must wrap the cause, got %v", err)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	p := &fakeProvider{device: &fakeDevice{id: "rear"}}
	s := NewSession(p, nil)

	// Start before Setup is a no-op.
	s.Start()
	if p.started != 0 {
		t.Error("Start without a configured input must be a no-op")
	}

	if err := s.Setup(); err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Start()
	if p.started != 1 {
		t.Errorf("repeated Start must be idempotent, got %d", p.started)
	}
	if !s.Running() {
		t.Error("session must report running after Start")
	}

	s.Stop()
	s.Stop()
	if p.stopped != 1 {
		t.Errorf("repeated Stop must be idempotent, got %d", p.stopped)
	}
	if s.Running() {
		t.Error("session must report stopped after Stop")
	}
}
