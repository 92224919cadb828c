//go:build linux

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// evdevRemote reads a remote (gamepad, BLE HID remote, IR receiver) through a
// Linux input event node.
//
// Poll does not track press/release events; it asks the kernel for the full
// key-state bitmap (EVIOCGKEY), which is exactly the "currently pressed" set.
// Queued events are drained without parsing so the node's buffer never fills,
// and a vanished device (ENODEV) surfaces on the next poll as a LinkError.
type evdevRemote struct {
	device string // explicit path, e.g. /dev/input/event6
	name   string // match by device name when device is empty
	keymap Keymap
	logger *slog.Logger

	fd     int
	opened string
	keys   []byte
	drain  []byte
}

func newEvdevRemote(device, name string, keymap Keymap, logger *slog.Logger) *evdevRemote {
	return &evdevRemote{
		device: device,
		name:   name,
		keymap: keymap,
		logger: logger,
		fd:     -1,
		keys:   make([]byte, keyBitmapLen),
		drain:  make([]byte, 24*64), // 64 input_event structs on 64-bit
	}
}

// ioctl request numbers: _IOC(_IOC_READ, 'E', nr, size)
func evIOCG(nr, size uintptr) uintptr {
	const iocRead = 2
	return iocRead<<30 | size<<16 | uintptr('E')<<8 | nr
}

func ioctlBuf(fd int, req uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// deviceName returns the EVIOCGNAME string of an open node.
func deviceName(fd int) (string, error) {
	buf := make([]byte, 256)
	if err := ioctlBuf(fd, evIOCG(0x06, uintptr(len(buf))), buf); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// Connect opens the configured node, retrying every 100ms until timeout.
func (r *evdevRemote) Connect(ctx context.Context, timeout time.Duration) error {
	_ = r.Close()

	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		path, fd, err := r.open()
		if err == nil {
			r.fd = fd
			r.opened = path
			r.logger.Debug("remote input opened", "device", path)
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return &LinkError{Op: "connect", Dev: r.describe(), Err: lastErr}
		}
		if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
			return &LinkError{Op: "connect", Dev: r.describe(), Err: err}
		}
	}
}

func (r *evdevRemote) describe() string {
	if r.device != "" {
		return r.device
	}
	return fmt.Sprintf("name=%q", r.name)
}

// open returns an fd for the configured device, or scans /dev/input for a node
// whose name matches.
func (r *evdevRemote) open() (string, int, error) {
	if r.device != "" {
		fd, err := unix.Open(ExpandPath(r.device), unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			return "", -1, fmt.Errorf("open %s: %w", r.device, err)
		}
		return r.device, fd, nil
	}

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return "", -1, err
	}
	for _, p := range paths {
		fd, err := unix.Open(p, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}
		n, err := deviceName(fd)
		if err == nil && n == r.name {
			return p, fd, nil
		}
		unix.Close(fd)
	}
	return "", -1, fmt.Errorf("no input device named %q", r.name)
}

// Poll returns the currently held buttons.
func (r *evdevRemote) Poll() (ButtonSet, error) {
	if r.fd < 0 {
		return 0, &LinkError{Op: "poll", Dev: r.describe(), Err: errors.New("not connected")}
	}

	// Drain queued events; they carry nothing the bitmap doesn't.
	for {
		_, err := unix.Read(r.fd, r.drain)
		if err == nil {
			continue
		}
		if err == unix.EAGAIN || err == syscall.EINTR {
			break
		}
		return 0, &LinkError{Op: "poll", Dev: r.opened, Err: err}
	}

	for i := range r.keys {
		r.keys[i] = 0
	}
	if err := ioctlBuf(r.fd, evIOCG(0x18, uintptr(len(r.keys))), r.keys); err != nil {
		return 0, &LinkError{Op: "poll", Dev: r.opened, Err: err}
	}
	return r.keymap.Decode(r.keys), nil
}

// Close releases the node. Safe to call repeatedly.
func (r *evdevRemote) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	r.opened = ""
	return err
}
