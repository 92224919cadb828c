package main

import (
	"context"
	"log/slog"
	"time"
)

// ConnectionState is the remote link state.
type ConnectionState uint8

const (
	StateReconnecting ConnectionState = iota
	StateConnected
)

func (s ConnectionState) String() string {
	if s == StateConnected {
		return "CONNECTED"
	}
	return "RECONNECTING"
}

// ConnectionSupervisor owns the reconnect state machine.
//
// It starts in RECONNECTING. Acquire blocks, retrying with a fixed delay, until
// the link is up and a first snapshot has been read; the caller then feeds that
// snapshot to the reducer as LinkRestored. While retrying, the indicator
// alternates between CONNECTING (attempt in flight) and FAULT (attempt failed).
type ConnectionSupervisor struct {
	input      InputPort
	indicator  IndicatorPort
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger

	state    ConnectionState
	attempts int // failed attempts since the last successful acquisition

	// wait is replaceable in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewConnectionSupervisor creates a supervisor in the RECONNECTING state.
func NewConnectionSupervisor(input InputPort, indicator IndicatorPort, timeout, retryDelay time.Duration, logger *slog.Logger) *ConnectionSupervisor {
	if indicator == nil {
		indicator = nopIndicator{}
	}
	return &ConnectionSupervisor{
		input:      input,
		indicator:  indicator,
		timeout:    timeout,
		retryDelay: retryDelay,
		logger:     logger,
		state:      StateReconnecting,
		wait:       sleepCtx,
	}
}

// State returns the current connection state.
func (s *ConnectionSupervisor) State() ConnectionState { return s.state }

// LinkLost records the CONNECTED -> RECONNECTING transition.
func (s *ConnectionSupervisor) LinkLost(err error) {
	if s.state == StateConnected {
		s.logger.Warn("remote disconnected; stopping outputs and reconnecting", "error", err)
	}
	s.state = StateReconnecting
}

// Acquire blocks until the link is up and returns the first snapshot read on
// it. It only returns an error when ctx is done.
func (s *ConnectionSupervisor) Acquire(ctx context.Context) (ButtonSet, error) {
	s.state = StateReconnecting

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		_ = s.indicator.SetColor(IndicatorConnecting, maxBrightness)

		pressed, err := s.attempt(ctx)
		if err == nil {
			s.logger.Info("remote connected", "failed_attempts", s.attempts)
			s.state = StateConnected
			s.attempts = 0
			return pressed, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		s.attempts++
		s.logger.Warn("remote not found; turn it on and try again", "error", err, "attempt", s.attempts)
		_ = s.indicator.SetColor(IndicatorFault, maxBrightness)

		if err := s.wait(ctx, s.retryDelay); err != nil {
			return 0, err
		}
	}
}

// attempt makes one link acquisition and primes edge detection with a real poll.
func (s *ConnectionSupervisor) attempt(ctx context.Context) (ButtonSet, error) {
	if err := s.input.Connect(ctx, s.timeout); err != nil {
		return 0, err
	}
	pressed, err := s.input.Poll()
	if err != nil {
		_ = s.input.Close()
		return 0, err
	}
	return pressed, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
