// Package hubproto defines the JSON command protocol spoken over the websocket
// between the remotedrive daemon and a hub bridge.
//
// Every request is a single-key JSON object whose key names the command:
//
//	{"SetMotorDuty": {"port": "A", "duty": 30, "device": "dc_motor"}}
//
// and every response echoes the command name with a result object:
//
//	{"SetMotorDuty": {"result": "Ok"}}
package hubproto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Command names a hub operation.
type Command string

const (
	CmdProbe        Command = "Probe"
	CmdSetMotorDuty Command = "SetMotorDuty"
	CmdSetLight     Command = "SetLight"
	CmdLightOff     Command = "LightOff"
	CmdSetIndicator Command = "SetIndicator"
)

// DeviceKind identifies what is attached to a hub port.
type DeviceKind string

const (
	DeviceDCMotor DeviceKind = "dc_motor"
	DeviceMotor   DeviceKind = "motor" // servo-capable motor with encoder
	DeviceLight   DeviceKind = "light"
)

// Code is a stable, wire-facing result identifier.
// It is comparable and implements error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK          Code = "Ok"
	NoDevice    Code = "NoDevice"
	WrongDevice Code = "WrongDevice"
	InvalidArgs Code = "InvalidArgs"
	Unsupported Code = "Unsupported"
	Error       Code = "Error" // generic fallback
)

// ProbeArgs asks whether a device of the given kind is attached to Port.
type ProbeArgs struct {
	Port   string     `json:"port"`
	Device DeviceKind `json:"device"`
}

// MotorArgs sets the motor duty cycle in percent [-100, 100].
type MotorArgs struct {
	Port   string     `json:"port"`
	Duty   int        `json:"duty"`
	Device DeviceKind `json:"device"`
}

// LightArgs sets light brightness in percent [0, 100].
type LightArgs struct {
	Port       string `json:"port"`
	Brightness int    `json:"brightness"`
}

// LightOffArgs switches the light on Port off.
type LightOffArgs struct {
	Port string `json:"port"`
}

// IndicatorArgs sets the hub status light.
type IndicatorArgs struct {
	Color      string `json:"color"`
	Brightness int    `json:"brightness"`
}

// Result is the body of every response.
type Result struct {
	Result  Code   `json:"result"`
	Message string `json:"message,omitempty"`
}

// Err returns nil for OK, otherwise the result code (with message if present).
func (r Result) Err() error {
	if r.Result == OK {
		return nil
	}
	if r.Message != "" {
		return fmt.Errorf("%w: %s", r.Result, r.Message)
	}
	return r.Result
}

// Encode builds a request frame.
func Encode(cmd Command, args any) ([]byte, error) {
	if cmd == "" {
		return nil, errors.New("empty command")
	}
	return json.Marshal(map[Command]any{cmd: args})
}

// Decode splits a request frame into its command name and raw arguments.
func Decode(frame []byte) (Command, json.RawMessage, error) {
	var m map[Command]json.RawMessage
	if err := json.Unmarshal(frame, &m); err != nil {
		return "", nil, fmt.Errorf("decode frame: %w", err)
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("decode frame: expected exactly one command, got %d", len(m))
	}
	for cmd, raw := range m {
		return cmd, raw, nil
	}
	return "", nil, errors.New("unreachable")
}

// EncodeResult builds a response frame.
func EncodeResult(cmd Command, r Result) ([]byte, error) {
	return json.Marshal(map[Command]Result{cmd: r})
}

// DecodeResult parses a response frame and checks that it answers cmd.
func DecodeResult(cmd Command, frame []byte) (Result, error) {
	name, raw, err := Decode(frame)
	if err != nil {
		return Result{}, err
	}
	if name != cmd {
		return Result{}, fmt.Errorf("response for %q while waiting for %q", name, cmd)
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, fmt.Errorf("decode %s result: %w", cmd, err)
	}
	return r, nil
}
