package main

// Output de-duplication.
//
// A channel is written only when the new value differs from what the hub last
// accepted. The cache is updated from OutputApplied observations, never
// optimistically, so a failed write is retried on the next tick.

// dispatchMotor returns the write needed to bring the motor channel to duty.
func dispatchMotor(sent sentValue, duty int) []Command {
	if sent.equals(duty) {
		return nil
	}
	return []Command{CmdSetMotorDuty{Duty: duty}}
}

// dispatchLight returns the write needed to bring the light channel to
// brightness. Zero is asserted through LightOff.
func dispatchLight(sent sentValue, brightness int) []Command {
	if sent.equals(brightness) {
		return nil
	}
	if brightness == 0 {
		return []Command{CmdLightOff{}}
	}
	return []Command{CmdSetLightBrightness{Brightness: brightness}}
}

// dispatchIndicator returns the write needed to show ind.
func dispatchIndicator(sent sentIndication, ind Indication) []Command {
	if sent.equals(ind) {
		return nil
	}
	return []Command{CmdIndicate{Indication: ind}}
}

// indicationFor derives the connected-state indication from the ramp.
// It reports false when the mode leaves the indicator alone.
func indicationFor(r RampState, mode IndicatorMode) (Indication, bool) {
	switch mode {
	case IndicatorModeLight:
		if r.LightBrightness <= 0 {
			return Indication{Tag: IndicatorOff}, true
		}
		return Indication{Tag: IndicatorReady, Brightness: r.LightBrightness}, true
	case IndicatorModeMotor:
		switch {
		case r.MotorDuty > 0:
			return Indication{Tag: IndicatorForward, Brightness: maxBrightness}, true
		case r.MotorDuty < 0:
			return Indication{Tag: IndicatorReverse, Brightness: maxBrightness}, true
		default:
			return Indication{Tag: IndicatorStopped, Brightness: maxBrightness}, true
		}
	default:
		return Indication{}, false
	}
}
