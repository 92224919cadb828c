package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"remotedrive/internal/hubproto"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var errFakeLink = errors.New("fake link down")

// pollResult is one scripted Poll outcome.
type pollResult struct {
	pressed ButtonSet
	err     error
}

// fakeInput is a scripted InputPort. Once the script is exhausted Poll keeps
// returning the last snapshot.
type fakeInput struct {
	mu sync.Mutex

	connectErrs int // remaining Connect calls that fail
	connects    int
	closes      int
	polls       int
	script      []pollResult
	last        ButtonSet
}

func (f *fakeInput) Connect(ctx context.Context, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErrs > 0 {
		f.connectErrs--
		return &LinkError{Op: "connect", Err: errFakeLink}
	}
	return nil
}

func (f *fakeInput) Poll() (ButtonSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.script) == 0 {
		return f.last, nil
	}
	r := f.script[0]
	f.script = f.script[1:]
	if r.err != nil {
		return 0, r.err
	}
	f.last = r.pressed
	return r.pressed, nil
}

func (f *fakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeInput) push(results ...pollResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, results...)
}

func (f *fakeInput) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

// fakeOutput records writes as "motor:N", "light:N" and "off".
type fakeOutput struct {
	mu     sync.Mutex
	writes []string
	failN  int // remaining writes that fail
}

func (f *fakeOutput) record(w string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errors.New("fake write failed")
	}
	f.writes = append(f.writes, w)
	return nil
}

func (f *fakeOutput) SetMotorDuty(duty int) error { return f.record(fmt.Sprintf("motor:%d", duty)) }
func (f *fakeOutput) SetLightBrightness(b int) error {
	return f.record(fmt.Sprintf("light:%d", b))
}
func (f *fakeOutput) LightOff() error { return f.record("off") }

func (f *fakeOutput) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *fakeOutput) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// fakeIndicator records indicator tags.
type fakeIndicator struct {
	mu   sync.Mutex
	tags []IndicatorTag
}

func (f *fakeIndicator) SetColor(tag IndicatorTag, brightness int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, tag)
	return nil
}

func (f *fakeIndicator) snapshot() []IndicatorTag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]IndicatorTag(nil), f.tags...)
}

// fakeHub is a HubClientInterface with a fixed device table.
type fakeHub struct {
	mu      sync.Mutex
	devices map[string]hubproto.DeviceKind // port -> attached device
	probes  []string                       // "port/kind"
	calls   []string
}

func newFakeHub(devices map[string]hubproto.DeviceKind) *fakeHub {
	if devices == nil {
		devices = make(map[string]hubproto.DeviceKind)
	}
	return &fakeHub{devices: devices}
}

func (h *fakeHub) attach(port string, kind hubproto.DeviceKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices[port] = kind
}

func (h *fakeHub) check(port string, kind hubproto.DeviceKind) error {
	got, ok := h.devices[port]
	if !ok {
		return hubproto.NoDevice
	}
	if got != kind {
		return hubproto.WrongDevice
	}
	return nil
}

func (h *fakeHub) Probe(port string, kind hubproto.DeviceKind, timeout time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, port+"/"+string(kind))
	return h.check(port, kind)
}

func (h *fakeHub) SetMotor(port string, duty int, kind hubproto.DeviceKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf("motor %s %d", port, duty))
	return h.check(port, kind)
}

func (h *fakeHub) SetLight(port string, brightness int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf("light %s %d", port, brightness))
	return h.check(port, hubproto.DeviceLight)
}

func (h *fakeHub) LightOff(port string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "off "+port)
	return h.check(port, hubproto.DeviceLight)
}

func (h *fakeHub) SetIndicator(color string, brightness int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf("indicator %s %d", color, brightness))
	return nil
}

func (h *fakeHub) callLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func noWait(ctx context.Context, d time.Duration) error { return ctx.Err() }

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testControlConfig is the default tuning with the indicator left alone.
func testControlConfig() ControlConfig {
	return ControlConfig{
		PollPeriod:       time.Duration(defaultPollPeriodMS) * time.Millisecond,
		MotorMaxStep:     defaultMotorMaxStep,
		MotorSlewPerTick: defaultMotorSlewPerTick,
		LightMaxLevel:    defaultLightMaxLevel,
		LightSlewPerTick: defaultLightSlewPerTick,
		Indicator:        IndicatorModeNone,
	}
}
