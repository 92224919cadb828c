package main

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ============================================================================
// Control Loop - Reducer-driven
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands.
//   - The loop is the only place that executes side effects (output writes).
//   - Write results are turned into Events and fed back into the reducer.
//   - One goroutine owns ControlState; nothing else reads or writes it.
//
// ============================================================================

// ControlLoop is the fixed-period driver.
type ControlLoop struct {
	input     InputPort
	output    OutputPort
	indicator IndicatorPort
	sup       *ConnectionSupervisor
	cfg       ControlConfig
	logger    *slog.Logger

	state *ControlState

	// Explicit queues:
	// - eventQueue holds events awaiting reduction
	// - cmdQueue holds commands awaiting execution
	eventQueue []Event
	cmdQueue   []Command
}

// NewControlLoop wires the core to its ports. indicator may be nil.
func NewControlLoop(input InputPort, output OutputPort, indicator IndicatorPort, sup *ConnectionSupervisor, cfg ControlConfig, logger *slog.Logger) *ControlLoop {
	if indicator == nil {
		indicator = nopIndicator{}
	}
	return &ControlLoop{
		input:     input,
		output:    output,
		indicator: indicator,
		sup:       sup,
		cfg:       cfg,
		logger:    logger,
		state:     &ControlState{},
	}
}

// State returns the loop-owned state. Only for use from the loop goroutine (and tests).
func (l *ControlLoop) State() *ControlState { return l.state }

// Run acquires the link, then ticks every PollPeriod until ctx is canceled.
// On exit it drives the outputs to the safe state.
//
// Shutdown semantics:
//   - Returns nil when ctx is canceled
func (l *ControlLoop) Run(ctx context.Context) error {
	defer l.shutdown()

	if err := l.reconnect(ctx); err != nil {
		return ignoreCanceled(err)
	}

	ticker := time.NewTicker(l.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopping (context canceled)")
			return nil

		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				return ignoreCanceled(err)
			}
		}
	}
}

// Tick runs one iteration: poll, then either reduce the snapshot or handle
// link loss and block in the supervisor until the link is back.
func (l *ControlLoop) Tick(ctx context.Context) error {
	if l.sup.State() != StateConnected {
		return l.reconnect(ctx)
	}

	pressed, err := l.input.Poll()
	if err != nil {
		var le *LinkError
		if !errors.As(err, &le) {
			err = &LinkError{Op: "poll", Err: err}
		}
		l.sup.LinkLost(err)
		_ = l.input.Close()
		l.handle(LinkLost{Err: err, At: time.Now()})
		return l.reconnect(ctx)
	}

	l.handle(ButtonsPolled{Pressed: pressed, At: time.Now()})
	return nil
}

// reconnect blocks in the supervisor and re-seeds edge detection on success.
func (l *ControlLoop) reconnect(ctx context.Context) error {
	pressed, err := l.sup.Acquire(ctx)
	if err != nil {
		return err
	}
	l.handle(LinkRestored{Pressed: pressed, At: time.Now()})
	return nil
}

// shutdown writes the safe state before exit.
func (l *ControlLoop) shutdown() {
	l.handle(ShutdownRequested{At: time.Now()})
	_ = l.input.Close()
}

// handle reduces ev and executes all resulting commands, reducing their
// observations until both queues are empty.
func (l *ControlLoop) handle(ev Event) {
	l.eventQueue = append(l.eventQueue, ev)
	l.flushEvents()
	l.flushCommands()
}

func (l *ControlLoop) flushEvents() {
	for len(l.eventQueue) > 0 {
		ev := l.eventQueue[0]
		l.eventQueue = l.eventQueue[1:]

		rr := Reduce(l.state, ev, l.cfg)
		if rr.State != nil {
			l.state = rr.State
		}
		if !rr.Presses.Empty() {
			l.logger.Debug("new presses", "buttons", rr.Presses.String(),
				"motor_step", l.state.Target.MotorStep, "light_level", l.state.Target.LightLevel)
		}
		l.cmdQueue = append(l.cmdQueue, rr.Commands...)
	}
}

func (l *ControlLoop) flushCommands() {
	for len(l.cmdQueue) > 0 {
		cmd := l.cmdQueue[0]
		l.cmdQueue = l.cmdQueue[1:]

		runEffect(l.output, l.indicator, cmd, l.logger, func(obs Event) {
			l.eventQueue = append(l.eventQueue, obs)
		})

		// Observations are reduced promptly to keep the last-sent cache coherent.
		l.flushEvents()
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
