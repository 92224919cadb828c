package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"remotedrive/internal/hubproto"
)

func testOutputSetup() OutputSetup {
	return OutputSetup{
		MotorPort: "A",
		LightPort: "B",
		DriveProbes: []DriveProbe{
			{Kind: hubproto.DeviceDCMotor, Timeout: time.Second, Attempts: 1},
			{Kind: hubproto.DeviceMotor, Timeout: time.Second, Attempts: 1},
		},
		LightTimeout: time.Second,
		RetryDelay:   500 * time.Millisecond,
		BlinkOn:      200 * time.Millisecond,
	}
}

func TestOutputBuilder_ProbesInOrder(t *testing.T) {
	hub := newFakeHub(map[string]hubproto.DeviceKind{
		"A": hubproto.DeviceMotor,
		"B": hubproto.DeviceLight,
	})
	b := newOutputBuilder(hub, nil, testOutputSetup(), testLogger())
	b.wait = noWait

	out, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out.drive != hubproto.DeviceMotor {
		t.Fatalf("expected drive %q, got %q", hubproto.DeviceMotor, out.drive)
	}
	want := []string{"A/dc_motor", "A/motor", "B/light"}
	if !equalStrings(hub.probes, want) {
		t.Fatalf("probes = %v, want %v", hub.probes, want)
	}
}

func TestOutputBuilder_BlinksUntilLightAttached(t *testing.T) {
	hub := newFakeHub(map[string]hubproto.DeviceKind{"A": hubproto.DeviceDCMotor})
	ind := &fakeIndicator{}
	b := newOutputBuilder(hub, ind, testOutputSetup(), testLogger())

	var waits []time.Duration
	b.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 2 {
			hub.attach("B", hubproto.DeviceLight)
		}
		return nil
	}

	out, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out.drive != hubproto.DeviceDCMotor {
		t.Fatalf("expected dc motor, got %q", out.drive)
	}

	tags := ind.snapshot()
	if len(tags) != 2 || tags[0] != IndicatorWarning || tags[1] != IndicatorOff {
		t.Fatalf("indicator = %v, want [WARNING OFF]", tags)
	}
	if len(waits) != 2 || waits[0] != 200*time.Millisecond || waits[1] != 300*time.Millisecond {
		t.Fatalf("waits = %v, want [200ms 300ms]", waits)
	}
}

func TestOutputBuilder_StopsOnCancel(t *testing.T) {
	hub := newFakeHub(nil)
	ind := &fakeIndicator{}
	b := newOutputBuilder(hub, ind, testOutputSetup(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	b.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := b.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tags := ind.snapshot(); len(tags) == 0 || tags[0] != IndicatorFault {
		t.Fatalf("expected FAULT blink for a missing motor, got %v", tags)
	}
}

func TestOutputBuilder_AuxLight(t *testing.T) {
	setup := testOutputSetup()
	setup.AuxLightPort = "C"

	// Absent: tolerated.
	hub := newFakeHub(map[string]hubproto.DeviceKind{"A": hubproto.DeviceDCMotor, "B": hubproto.DeviceLight})
	b := newOutputBuilder(hub, nil, setup, testLogger())
	b.wait = noWait
	out, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out.auxPort != "" {
		t.Fatalf("expected aux light disabled, got port %q", out.auxPort)
	}

	// Present: mirrors the main light.
	hub = newFakeHub(map[string]hubproto.DeviceKind{"A": hubproto.DeviceDCMotor, "B": hubproto.DeviceLight, "C": hubproto.DeviceLight})
	b = newOutputBuilder(hub, nil, setup, testLogger())
	b.wait = noWait
	out, err = b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := out.SetLightBrightness(40); err != nil {
		t.Fatalf("SetLightBrightness: %v", err)
	}
	if err := out.LightOff(); err != nil {
		t.Fatalf("LightOff: %v", err)
	}
	if err := out.SetMotorDuty(-20); err != nil {
		t.Fatalf("SetMotorDuty: %v", err)
	}
	want := []string{"light B 40", "light C 40", "off B", "off C", "motor A -20"}
	if got := hub.callLog(); !equalStrings(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestHubOutput_MainLightErrorIsReported(t *testing.T) {
	hub := newFakeHub(map[string]hubproto.DeviceKind{"A": hubproto.DeviceDCMotor})
	out := &hubOutput{hub: hub, motorPort: "A", drive: hubproto.DeviceDCMotor, lightPort: "B", logger: testLogger()}

	if err := out.SetLightBrightness(10); !errors.Is(err, hubproto.NoDevice) {
		t.Fatalf("expected NoDevice, got %v", err)
	}
	if err := out.SetMotorDuty(10); err != nil {
		t.Fatalf("SetMotorDuty: %v", err)
	}
}

func TestHubIndicator(t *testing.T) {
	hub := newFakeHub(nil)
	ind := hubIndicator{hub: hub}

	_ = ind.SetColor(IndicatorReady, 60)
	_ = ind.SetColor(IndicatorOff, 60)
	_ = ind.SetColor(IndicatorReverse, 100)

	want := []string{"indicator green 60", "indicator none 0", "indicator orange 100"}
	if got := hub.callLog(); !equalStrings(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}
