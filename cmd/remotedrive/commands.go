package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command represents an output write to be executed by the control loop.
type Command interface {
	commandMarker()
	Channel() Channel
	String() string
}

// CmdSetMotorDuty writes a motor duty cycle.
type CmdSetMotorDuty struct {
	Duty  int
	Force bool // issued regardless of the last-sent cache
}

func (CmdSetMotorDuty) commandMarker()   {}
func (CmdSetMotorDuty) Channel() Channel { return ChannelMotor }
func (c CmdSetMotorDuty) String() string {
	return fmt.Sprintf("CmdSetMotorDuty(duty=%d, force=%v)", c.Duty, c.Force)
}

// CmdSetLightBrightness writes a non-zero light brightness.
type CmdSetLightBrightness struct {
	Brightness int
}

func (CmdSetLightBrightness) commandMarker()   {}
func (CmdSetLightBrightness) Channel() Channel { return ChannelLight }
func (c CmdSetLightBrightness) String() string {
	return fmt.Sprintf("CmdSetLightBrightness(brightness=%d)", c.Brightness)
}

// CmdLightOff switches the light off.
type CmdLightOff struct {
	Force bool
}

func (CmdLightOff) commandMarker()   {}
func (CmdLightOff) Channel() Channel { return ChannelLight }
func (c CmdLightOff) String() string { return fmt.Sprintf("CmdLightOff(force=%v)", c.Force) }

// CmdIndicate sets the status light.
type CmdIndicate struct {
	Indication Indication
}

func (CmdIndicate) commandMarker()   {}
func (CmdIndicate) Channel() Channel { return ChannelIndicator }
func (c CmdIndicate) String() string {
	return fmt.Sprintf("CmdIndicate(tag=%s, brightness=%d)", c.Indication.Tag, c.Indication.Brightness)
}
