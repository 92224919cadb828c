package mathx

import "golang.org/x/exp/constraints"

// StepToward moves cur toward target by at most step and never past target.
// A non-positive step leaves cur unchanged.
func StepToward[T constraints.Signed](cur, target, step T) T {
	if step <= 0 {
		return cur
	}
	if cur < target {
		return Min(cur+step, target)
	}
	if cur > target {
		return Max(cur-step, target)
	}
	return cur
}

// Scale maps v from [-inMax, inMax] onto [-outMax, outMax], truncating toward zero.
// v is clamped to the input range first; inMax <= 0 yields 0.
func Scale[T constraints.Signed](v, inMax, outMax T) T {
	if inMax <= 0 {
		return 0
	}
	v = Clamp(v, -inMax, inMax)
	return v * outMax / inMax
}
