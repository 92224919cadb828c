package main

import "testing"

func TestStepRamp_SlewBound(t *testing.T) {
	cfg := testControlConfig()
	targets := []ControlTarget{
		{MotorStep: 10, LightLevel: 10},
		{MotorStep: 3, LightLevel: 1},
		{},
		{MotorStep: 7, LightLevel: 4},
	}

	var r RampState
	for _, tgt := range targets {
		for i := 0; i < 50; i++ {
			next := StepRamp(r, tgt, cfg)
			if d := next.MotorDuty - r.MotorDuty; d > cfg.MotorSlewPerTick || d < -cfg.MotorSlewPerTick {
				t.Fatalf("motor moved %d in one tick (slew %d)", d, cfg.MotorSlewPerTick)
			}
			if d := next.LightBrightness - r.LightBrightness; d > cfg.LightSlewPerTick || d < -cfg.LightSlewPerTick {
				t.Fatalf("light moved %d in one tick (slew %d)", d, cfg.LightSlewPerTick)
			}
			r = next
		}
		if r.MotorDuty != targetDuty(tgt.MotorStep, cfg) || r.LightBrightness != targetBrightness(tgt.LightLevel, cfg) {
			t.Fatalf("ramp %+v did not settle on target %+v", r, tgt)
		}
	}
}

func TestStepRamp_NoOvershoot(t *testing.T) {
	cfg := testControlConfig()
	cfg.MotorSlewPerTick = 7

	// 0 -> 30 at slew 7: 7, 14, 21, 28, 30
	want := []int{7, 14, 21, 28, 30, 30}
	var r RampState
	tgt := ControlTarget{MotorStep: 3}
	for i, w := range want {
		r = StepRamp(r, tgt, cfg)
		if r.MotorDuty != w {
			t.Fatalf("tick %d: duty=%d, want %d", i+1, r.MotorDuty, w)
		}
	}
}

func TestStepRamp_IdempotentAtTarget(t *testing.T) {
	cfg := testControlConfig()
	tgt := ControlTarget{MotorStep: 5, LightLevel: 5}
	r := RampState{MotorDuty: 50, LightBrightness: 50}
	for i := 0; i < 10; i++ {
		if next := StepRamp(r, tgt, cfg); next != r {
			t.Fatalf("ramp moved at target: %+v -> %+v", r, next)
		}
	}
}

func TestTargetScaling(t *testing.T) {
	cfg := testControlConfig()
	cfg.MotorMaxStep = 3
	cfg.LightMaxLevel = 3

	if got := targetDuty(1, cfg); got != 33 {
		t.Errorf("targetDuty(1) = %d, want 33", got)
	}
	if got := targetDuty(3, cfg); got != 100 {
		t.Errorf("targetDuty(3) = %d, want 100", got)
	}
	if got := targetBrightness(-1, cfg); got != 0 {
		t.Errorf("targetBrightness(-1) = %d, want 0", got)
	}
}
