package main

import (
	"context"
	"testing"
	"time"
)

func TestSupervisor_RetriesUntilConnected(t *testing.T) {
	input := &fakeInput{connectErrs: 2}
	input.push(pollResult{pressed: NewButtonSet(ButtonRight)})
	ind := &fakeIndicator{}

	sup := NewConnectionSupervisor(input, ind, time.Second, 300*time.Millisecond, testLogger())
	var waits []time.Duration
	sup.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if sup.State() != StateReconnecting {
		t.Fatalf("expected initial state RECONNECTING, got %s", sup.State())
	}

	pressed, err := sup.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if pressed != NewButtonSet(ButtonRight) {
		t.Errorf("expected priming snapshot {RIGHT}, got %s", pressed)
	}
	if sup.State() != StateConnected {
		t.Errorf("expected CONNECTED, got %s", sup.State())
	}
	if input.connects != 3 {
		t.Errorf("expected 3 connect attempts, got %d", input.connects)
	}
	if len(waits) != 2 || waits[0] != 300*time.Millisecond {
		t.Errorf("expected two 300ms retry waits, got %v", waits)
	}

	want := []IndicatorTag{IndicatorConnecting, IndicatorFault, IndicatorConnecting, IndicatorFault, IndicatorConnecting}
	got := ind.snapshot()
	if len(got) != len(want) {
		t.Fatalf("indicator sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indicator sequence %v, want %v", got, want)
		}
	}
}

func TestSupervisor_PollFailureAfterConnectRetries(t *testing.T) {
	input := &fakeInput{}
	input.push(pollResult{err: &LinkError{Op: "poll", Err: errFakeLink}}, pollResult{})

	sup := NewConnectionSupervisor(input, nil, time.Second, 0, testLogger())
	sup.wait = noWait

	if _, err := sup.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if input.connects != 2 || input.closes != 1 {
		t.Fatalf("expected 2 connects and 1 close, got %d and %d", input.connects, input.closes)
	}
}

func TestSupervisor_AcquireStopsOnCancel(t *testing.T) {
	input := &fakeInput{connectErrs: 1 << 30}
	sup := NewConnectionSupervisor(input, nil, time.Second, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sup.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}

	if _, err := sup.Acquire(ctx); err == nil {
		t.Fatalf("expected error after cancel")
	}
	if sup.State() != StateReconnecting {
		t.Fatalf("expected RECONNECTING after cancel, got %s", sup.State())
	}
}

func TestSupervisor_LinkLost(t *testing.T) {
	input := &fakeInput{}
	sup := NewConnectionSupervisor(input, nil, time.Second, 0, testLogger())
	sup.wait = noWait
	if _, err := sup.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	sup.LinkLost(errFakeLink)
	if sup.State() != StateReconnecting {
		t.Fatalf("expected RECONNECTING, got %s", sup.State())
	}
}
