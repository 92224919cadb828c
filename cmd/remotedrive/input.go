package main

import "fmt"

// Keymap maps Linux key codes to logical buttons.
type Keymap map[uint16]Button

// DefaultKeymap is a gamepad layout: d-pad drives the motor, face buttons the light.
func DefaultKeymap() Keymap {
	return Keymap{
		BTN_DPAD_UP:   ButtonLeftPlus,
		BTN_DPAD_DOWN: ButtonLeftMinus,
		BTN_DPAD_LEFT: ButtonLeft,
		BTN_NORTH:     ButtonRightPlus,
		BTN_SOUTH:     ButtonRightMinus,
		BTN_EAST:      ButtonRight,
		BTN_MODE:      ButtonCenter,
	}
}

// keyBitmapLen is the size of the EVIOCGKEY bitmap for codes 0..KEY_MAX.
const keyBitmapLen = KEY_MAX/8 + 1

// Decode converts a kernel key-state bitmap (bit n set = code n held) into a ButtonSet.
func (k Keymap) Decode(bitmap []byte) ButtonSet {
	var s ButtonSet
	for code, b := range k {
		idx := int(code / 8)
		if idx >= len(bitmap) {
			continue
		}
		if bitmap[idx]&(1<<(code%8)) != 0 {
			s = s.Add(b)
		}
	}
	return s
}

// validate checks that every code is in range and no two buttons share a code.
func (k Keymap) validate() error {
	seen := make(map[Button]uint16, len(k))
	for code, b := range k {
		if code > KEY_MAX {
			return fmt.Errorf("key code %d for %s exceeds KEY_MAX", code, b)
		}
		if b >= numButtons {
			return fmt.Errorf("key code %d maps to unknown button %d", code, b)
		}
		if other, ok := seen[b]; ok {
			return fmt.Errorf("%s mapped twice (codes %d and %d)", b, other, code)
		}
		seen[b] = code
	}
	return nil
}
