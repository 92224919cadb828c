package main

import (
	"context"
	"fmt"
	"time"
)

// InputPort is the remote control link.
//
// Connect acquires the link, giving up with a *LinkError after timeout.
// Poll returns the currently pressed buttons or a *LinkError when the remote
// is unreachable.
type InputPort interface {
	Connect(ctx context.Context, timeout time.Duration) error
	Poll() (ButtonSet, error)
	Close() error
}

// OutputPort drives the actuators. LightOff is a distinct zero assertion:
// brightness 0 is never sent through SetLightBrightness.
type OutputPort interface {
	SetMotorDuty(duty int) error
	SetLightBrightness(brightness int) error
	LightOff() error
}

// IndicatorPort reflects operational state on a status light. Best-effort.
type IndicatorPort interface {
	SetColor(tag IndicatorTag, brightness int) error
}

// IndicatorTag is one of a small fixed set of indication states.
type IndicatorTag uint8

const (
	IndicatorOff IndicatorTag = iota
	IndicatorReady
	IndicatorFault
	IndicatorConnecting
	IndicatorForward
	IndicatorReverse
	IndicatorStopped
	IndicatorWarning
)

// Color returns the hub colour name used for the tag.
func (t IndicatorTag) Color() string {
	switch t {
	case IndicatorReady, IndicatorForward:
		return "green"
	case IndicatorFault, IndicatorStopped:
		return "red"
	case IndicatorConnecting:
		return "yellow"
	case IndicatorReverse:
		return "orange"
	case IndicatorWarning:
		return "magenta"
	default:
		return "none"
	}
}

func (t IndicatorTag) String() string {
	switch t {
	case IndicatorOff:
		return "OFF"
	case IndicatorReady:
		return "READY"
	case IndicatorFault:
		return "FAULT"
	case IndicatorConnecting:
		return "CONNECTING"
	case IndicatorForward:
		return "FORWARD"
	case IndicatorReverse:
		return "REVERSE"
	case IndicatorStopped:
		return "STOPPED"
	case IndicatorWarning:
		return "WARNING"
	default:
		return fmt.Sprintf("IndicatorTag(%d)", uint8(t))
	}
}

// LinkError reports that the remote is unreachable. It is always recoverable.
type LinkError struct {
	Op  string // "connect" or "poll"
	Dev string
	Err error
}

func (e *LinkError) Error() string {
	if e.Dev != "" {
		return fmt.Sprintf("remote link %s %s: %v", e.Op, e.Dev, e.Err)
	}
	return fmt.Sprintf("remote link %s: %v", e.Op, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// DeviceConstructionError reports that an output device could not be set up.
// It is handled by blink-and-retry and never aborts the process.
type DeviceConstructionError struct {
	Device string // "motor", "light", "hub"
	Port   string
	Err    error
}

func (e *DeviceConstructionError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("construct %s on port %s: %v", e.Device, e.Port, e.Err)
	}
	return fmt.Sprintf("construct %s: %v", e.Device, e.Err)
}

func (e *DeviceConstructionError) Unwrap() error { return e.Err }

// nopIndicator is used when no status light is configured.
type nopIndicator struct{}

func (nopIndicator) SetColor(IndicatorTag, int) error { return nil }
