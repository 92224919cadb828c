package main

import "time"

// ==============================
// Events
// ==============================

// Event is the input to the reducer.
// It can be a polled snapshot, a link transition, or an output observation.
type Event interface {
	eventMarker()
}

// ButtonsPolled is emitted once per tick after a successful poll.
type ButtonsPolled struct {
	Pressed ButtonSet
	At      time.Time
}

func (ButtonsPolled) eventMarker() {}

// LinkLost is emitted when a poll fails while connected.
type LinkLost struct {
	Err error
	At  time.Time
}

func (LinkLost) eventMarker() {}

// LinkRestored is emitted after the link is re-acquired. Pressed is the first
// snapshot read on the new link and seeds edge detection.
type LinkRestored struct {
	Pressed ButtonSet
	At      time.Time
}

func (LinkRestored) eventMarker() {}

// ShutdownRequested drives everything to the safe state before exit.
type ShutdownRequested struct {
	At time.Time
}

func (ShutdownRequested) eventMarker() {}

// Channel identifies an output channel.
type Channel uint8

const (
	ChannelMotor Channel = iota
	ChannelLight
	ChannelIndicator
)

func (c Channel) String() string {
	switch c {
	case ChannelMotor:
		return "motor"
	case ChannelLight:
		return "light"
	case ChannelIndicator:
		return "indicator"
	default:
		return "unknown"
	}
}

// OutputApplied is emitted after a command was written successfully.
type OutputApplied struct {
	Channel    Channel
	Value      int
	Indication Indication // set for ChannelIndicator
	At         time.Time
}

func (OutputApplied) eventMarker() {}

// OutputFailed is emitted when writing a command failed.
type OutputFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (OutputFailed) eventMarker() {}
