package main

import "remotedrive/internal/mathx"

// targetDuty scales a motor step onto the duty range.
func targetDuty(step int, cfg ControlConfig) int {
	return mathx.Scale(step, cfg.MotorMaxStep, maxDuty)
}

// targetBrightness scales a light level onto the brightness range.
func targetBrightness(level int, cfg ControlConfig) int {
	return mathx.Clamp(mathx.Scale(level, cfg.LightMaxLevel, maxBrightness), 0, maxBrightness)
}

// StepRamp advances each channel of r toward t by at most its slew-per-tick.
//
// The result depends only on (current, target, slew); once a channel reaches
// its target it stays there.
func StepRamp(r RampState, t ControlTarget, cfg ControlConfig) RampState {
	r.MotorDuty = mathx.StepToward(r.MotorDuty, targetDuty(t.MotorStep, cfg), cfg.MotorSlewPerTick)
	r.MotorDuty = mathx.Clamp(r.MotorDuty, -maxDuty, maxDuty)

	r.LightBrightness = mathx.StepToward(r.LightBrightness, targetBrightness(t.LightLevel, cfg), cfg.LightSlewPerTick)
	r.LightBrightness = mathx.Clamp(r.LightBrightness, 0, maxBrightness)
	return r
}
