package main

import (
	"errors"
	"log/slog"
	"time"
)

// runEffect executes a single reducer-emitted Command against the output ports
// and emits an observation Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the control loop.
func runEffect(
	out OutputPort,
	ind IndicatorPort,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		return
	}

	now := time.Now()
	if out == nil {
		onEvent(OutputFailed{Command: cmd, Err: errNoOutput, At: now})
		return
	}

	switch c := cmd.(type) {
	case CmdSetMotorDuty:
		if err := out.SetMotorDuty(c.Duty); err != nil {
			logger.Error("set motor duty failed", "error", err, "duty", c.Duty)
			onEvent(OutputFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("motor duty", "duty", c.Duty, "forced", c.Force)
		onEvent(OutputApplied{Channel: ChannelMotor, Value: c.Duty, At: now})

	case CmdSetLightBrightness:
		if err := out.SetLightBrightness(c.Brightness); err != nil {
			logger.Error("set light brightness failed", "error", err, "brightness", c.Brightness)
			onEvent(OutputFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("light brightness", "brightness", c.Brightness)
		onEvent(OutputApplied{Channel: ChannelLight, Value: c.Brightness, At: now})

	case CmdLightOff:
		if err := out.LightOff(); err != nil {
			logger.Error("light off failed", "error", err)
			onEvent(OutputFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("light off", "forced", c.Force)
		onEvent(OutputApplied{Channel: ChannelLight, Value: 0, At: now})

	case CmdIndicate:
		if ind == nil {
			return
		}
		// Best-effort: a failed indication is logged and retried, never escalated.
		if err := ind.SetColor(c.Indication.Tag, c.Indication.Brightness); err != nil {
			logger.Warn("set indicator failed", "error", err, "tag", c.Indication.Tag)
			onEvent(OutputFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(OutputApplied{Channel: ChannelIndicator, Indication: c.Indication, At: now})

	default:
		logger.Warn("unknown command type", "command", cmd.String())
	}
}

var errNoOutput = errors.New("no output port")
