package main

import "strings"

// Button is a logical remote button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonLeftPlus
	ButtonLeftMinus
	ButtonRight
	ButtonRightPlus
	ButtonRightMinus
	ButtonCenter

	numButtons
)

var buttonNames = [numButtons]string{
	ButtonLeft:       "LEFT",
	ButtonLeftPlus:   "LEFT_PLUS",
	ButtonLeftMinus:  "LEFT_MINUS",
	ButtonRight:      "RIGHT",
	ButtonRightPlus:  "RIGHT_PLUS",
	ButtonRightMinus: "RIGHT_MINUS",
	ButtonCenter:     "CENTER",
}

func (b Button) String() string {
	if b < numButtons {
		return buttonNames[b]
	}
	return "UNKNOWN"
}

// ButtonSet is an immutable snapshot of pressed buttons, one bit per Button.
type ButtonSet uint8

// NewButtonSet builds a set from the given buttons.
func NewButtonSet(buttons ...Button) ButtonSet {
	var s ButtonSet
	for _, b := range buttons {
		s = s.Add(b)
	}
	return s
}

// Add returns s with b included. Unknown buttons are ignored.
func (s ButtonSet) Add(b Button) ButtonSet {
	if b >= numButtons {
		return s
	}
	return s | 1<<b
}

// Has reports whether b is in s.
func (s ButtonSet) Has(b Button) bool {
	return b < numButtons && s&(1<<b) != 0
}

// Minus returns the buttons in s that are not in other.
func (s ButtonSet) Minus(other ButtonSet) ButtonSet {
	return s &^ other
}

// Empty reports whether no button is set.
func (s ButtonSet) Empty() bool { return s == 0 }

func (s ButtonSet) String() string {
	var names []string
	for b := Button(0); b < numButtons; b++ {
		if s.Has(b) {
			names = append(names, b.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// NewPresses returns the buttons pressed in cur that were not pressed in prev.
// The result is always a subset of cur and disjoint from prev.
func NewPresses(prev, cur ButtonSet) ButtonSet {
	return cur.Minus(prev)
}
