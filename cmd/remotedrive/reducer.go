package main

// This file implements the reducer:
//
//   - Events: polled snapshots, link transitions, output observations
//   - Commands: output writes requested by the reducer
//   - Reduce(): computes next state + commands, without performing I/O
//
// The control loop executes Commands and feeds OutputApplied/OutputFailed
// observations back in, which is how the last-sent cache stays truthful.

// ReduceResult is the output of Reduce(): next state plus the writes to execute.
type ReduceResult struct {
	State    *ControlState
	Commands []Command

	// Presses are the new presses detected by this event (ButtonsPolled only).
	Presses ButtonSet
}

// Reduce is the pure reducer.
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Must not mutate anything outside the returned state
func Reduce(s *ControlState, e Event, cfg ControlConfig) ReduceResult {
	if s == nil {
		s = &ControlState{}
	}

	var cmds []Command
	var presses ButtonSet

	switch ev := e.(type) {
	case ButtonsPolled:
		presses = NewPresses(s.Prev, ev.Pressed)
		s.Prev = ev.Pressed

		s.Target = ApplyPresses(s.Target, presses, cfg)
		s.Ramp = StepRamp(s.Ramp, s.Target, cfg)

		cmds = append(cmds, dispatchMotor(s.Sent.Motor, s.Ramp.MotorDuty)...)
		cmds = append(cmds, dispatchLight(s.Sent.Light, s.Ramp.LightBrightness)...)
		if ind, ok := indicationFor(s.Ramp, cfg.Indicator); ok {
			cmds = append(cmds, dispatchIndicator(s.Sent.Indicator, ind)...)
		}

	case LinkLost:
		// Safe state within this tick. The zero writes bypass de-duplication:
		// the cache may hold a stale 0 that no longer reflects the hardware.
		s.zero()
		cmds = append(cmds,
			CmdSetMotorDuty{Duty: 0, Force: true},
			CmdLightOff{Force: true},
			CmdIndicate{Indication: Indication{Tag: IndicatorFault, Brightness: maxBrightness}},
		)

	case LinkRestored:
		s.Prev = ev.Pressed
		cmds = append(cmds, CmdIndicate{Indication: Indication{Tag: IndicatorReady, Brightness: maxBrightness}})

	case ShutdownRequested:
		s.zero()
		cmds = append(cmds,
			CmdSetMotorDuty{Duty: 0, Force: true},
			CmdLightOff{Force: true},
			CmdIndicate{Indication: Indication{Tag: IndicatorOff}},
		)

	case OutputApplied:
		switch ev.Channel {
		case ChannelMotor:
			s.Sent.Motor.set(ev.Value)
		case ChannelLight:
			s.Sent.Light.set(ev.Value)
		case ChannelIndicator:
			s.Sent.Indicator = sentIndication{Value: ev.Indication, Known: true}
		}

	case OutputFailed:
		// Hardware state is unknown after a failed write; force a resend.
		switch ev.Command.Channel() {
		case ChannelMotor:
			s.Sent.Motor.invalidate()
		case ChannelLight:
			s.Sent.Light.invalidate()
		case ChannelIndicator:
			s.Sent.Indicator = sentIndication{}
		}

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{
		State:    s,
		Commands: cmds,
		Presses:  presses,
	}
}
