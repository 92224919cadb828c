package main

import "time"

// ControlConfig contains the tunables of the control core.
type ControlConfig struct {
	PollPeriod time.Duration

	MotorMaxStep       int
	MotorSlewPerTick   int
	MotorBidirectional bool

	LightMaxLevel    int
	LightSlewPerTick int

	Indicator IndicatorMode
}

// IndicatorMode selects what the status light shows while connected.
type IndicatorMode string

const (
	IndicatorModeNone  IndicatorMode = "none"
	IndicatorModeLight IndicatorMode = "light" // mirrors the light channel brightness
	IndicatorModeMotor IndicatorMode = "motor" // shows drive direction
)

// MotorMinStep is the lower bound of the motor step range.
func (c ControlConfig) MotorMinStep() int {
	if c.MotorBidirectional {
		return -c.MotorMaxStep
	}
	return 0
}

// ControlState is the loop-owned state container.
//
// Only the control loop goroutine touches it; no locking is needed.
type ControlState struct {
	// Previous snapshot for edge detection.
	Prev ButtonSet

	// Target is the discrete desired state set by button presses.
	Target ControlTarget

	// Ramp holds the currently applied (slew-limited) output values.
	Ramp RampState

	// Sent caches the last successfully written value per channel.
	Sent LastSentCache
}

// ControlTarget is the discretized desired state.
type ControlTarget struct {
	MotorStep  int
	LightLevel int
}

// RampState holds the current motor duty [-100,100] and brightness [0,100].
type RampState struct {
	MotorDuty       int
	LightBrightness int
}

// LastSentCache holds what each channel last received.
type LastSentCache struct {
	Motor     sentValue
	Light     sentValue
	Indicator sentIndication
}

// sentValue is a cached channel value; Known is false until the first write.
type sentValue struct {
	Value int
	Known bool
}

func (v sentValue) equals(x int) bool { return v.Known && v.Value == x }

func (v *sentValue) set(x int) {
	v.Value = x
	v.Known = true
}

func (v *sentValue) invalidate() { *v = sentValue{} }

// Indication is one status light setting.
type Indication struct {
	Tag        IndicatorTag
	Brightness int
}

type sentIndication struct {
	Value Indication
	Known bool
}

func (v sentIndication) equals(x Indication) bool { return v.Known && v.Value == x }

// zero drives target and ramp to the safe state.
func (s *ControlState) zero() {
	s.Target = ControlTarget{}
	s.Ramp = RampState{}
}
