package main

import "remotedrive/internal/mathx"

// ApplyPresses advances t by one step per newly pressed button.
//
// Rules run in a fixed order so a snapshot carrying several presses has one
// deterministic outcome: LEFT_PLUS, LEFT_MINUS, LEFT, RIGHT_PLUS, RIGHT_MINUS,
// RIGHT, CENTER. Motor and light rules are independent.
func ApplyPresses(t ControlTarget, presses ButtonSet, cfg ControlConfig) ControlTarget {
	if presses.Empty() {
		return t
	}

	minStep := cfg.MotorMinStep()

	if presses.Has(ButtonLeftPlus) {
		t.MotorStep = mathx.Clamp(t.MotorStep+1, minStep, cfg.MotorMaxStep)
	}
	if presses.Has(ButtonLeftMinus) {
		t.MotorStep = mathx.Clamp(t.MotorStep-1, minStep, cfg.MotorMaxStep)
	}
	if presses.Has(ButtonLeft) {
		t.MotorStep = 0 // smooth stop
	}

	if presses.Has(ButtonRightPlus) {
		t.LightLevel = mathx.Clamp(t.LightLevel+1, 0, cfg.LightMaxLevel)
	}
	if presses.Has(ButtonRightMinus) {
		t.LightLevel = mathx.Clamp(t.LightLevel-1, 0, cfg.LightMaxLevel)
	}
	if presses.Has(ButtonRight) {
		t.LightLevel = 0
	}

	if presses.Has(ButtonCenter) {
		t.MotorStep = 0
		t.LightLevel = 0
	}
	return t
}
