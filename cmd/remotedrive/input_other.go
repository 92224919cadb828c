//go:build !linux

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// evdevRemote is only available on Linux.
type evdevRemote struct {
	device string
	name   string
}

func newEvdevRemote(device, name string, _ Keymap, _ *slog.Logger) *evdevRemote {
	return &evdevRemote{device: device, name: name}
}

var errNoEvdev = errors.New("evdev input requires linux")

func (r *evdevRemote) Connect(context.Context, time.Duration) error {
	return &LinkError{Op: "connect", Dev: r.device, Err: errNoEvdev}
}

func (r *evdevRemote) Poll() (ButtonSet, error) {
	return 0, &LinkError{Op: "poll", Dev: r.device, Err: errNoEvdev}
}

func (r *evdevRemote) Close() error { return nil }

func (r *evdevRemote) describe() string {
	if r.device != "" {
		return r.device
	}
	return r.name
}
