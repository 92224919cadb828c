package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"remotedrive/internal/hubproto"
	"remotedrive/internal/mathx"
)

// DriveProbe is one attempt, in order, to construct the drive on its port.
type DriveProbe struct {
	Kind     hubproto.DeviceKind
	Timeout  time.Duration
	Attempts int
}

// OutputSetup describes which hub ports carry which device.
type OutputSetup struct {
	MotorPort    string
	LightPort    string
	AuxLightPort string // optional; "" disables
	DriveProbes  []DriveProbe
	LightTimeout time.Duration

	RetryDelay time.Duration // between construction rounds
	BlinkOn    time.Duration // indicator on-time during a retry round
}

// hubOutput implements OutputPort on a hub.
type hubOutput struct {
	hub       HubClientInterface
	motorPort string
	drive     hubproto.DeviceKind
	lightPort string
	auxPort   string
	logger    *slog.Logger
}

func (o *hubOutput) SetMotorDuty(duty int) error {
	return o.hub.SetMotor(o.motorPort, duty, o.drive)
}

func (o *hubOutput) SetLightBrightness(brightness int) error {
	if err := o.hub.SetLight(o.lightPort, brightness); err != nil {
		return err
	}
	if o.auxPort != "" {
		if err := o.hub.SetLight(o.auxPort, brightness); err != nil {
			o.logger.Warn("aux light write failed", "port", o.auxPort, "error", err)
		}
	}
	return nil
}

func (o *hubOutput) LightOff() error {
	err := o.hub.LightOff(o.lightPort)
	if o.auxPort != "" {
		if auxErr := o.hub.LightOff(o.auxPort); auxErr != nil {
			o.logger.Warn("aux light off failed", "port", o.auxPort, "error", auxErr)
		}
	}
	return err
}

// hubIndicator implements IndicatorPort with the hub status light.
type hubIndicator struct {
	hub HubClientInterface
}

func (i hubIndicator) SetColor(tag IndicatorTag, brightness int) error {
	if tag == IndicatorOff {
		brightness = 0
	}
	return i.hub.SetIndicator(tag.Color(), brightness)
}

// outputBuilder constructs the output devices, blinking the indicator and
// retrying until each required device answers.
type outputBuilder struct {
	hub       HubClientInterface
	indicator IndicatorPort
	setup     OutputSetup
	logger    *slog.Logger

	// wait is replaceable in tests.
	wait func(ctx context.Context, d time.Duration) error
}

func newOutputBuilder(hub HubClientInterface, indicator IndicatorPort, setup OutputSetup, logger *slog.Logger) *outputBuilder {
	if indicator == nil {
		indicator = nopIndicator{}
	}
	return &outputBuilder{
		hub:       hub,
		indicator: indicator,
		setup:     setup,
		logger:    logger,
		wait:      sleepCtx,
	}
}

// Build returns the OutputPort once the drive and light are present.
// It only returns an error when ctx is done.
func (b *outputBuilder) Build(ctx context.Context) (*hubOutput, error) {
	drive, err := b.await(ctx, "motor", b.setup.MotorPort, b.setup.DriveProbes, IndicatorFault)
	if err != nil {
		return nil, err
	}

	lightProbe := []DriveProbe{{Kind: hubproto.DeviceLight, Timeout: b.setup.LightTimeout, Attempts: 1}}
	if _, err := b.await(ctx, "light", b.setup.LightPort, lightProbe, IndicatorWarning); err != nil {
		return nil, err
	}

	aux := b.setup.AuxLightPort
	if aux != "" {
		if err := b.hub.Probe(aux, hubproto.DeviceLight, b.setup.LightTimeout); err != nil {
			b.logger.Info("aux light not found; continuing without it", "port", aux, "error", err)
			aux = ""
		}
	}

	b.logger.Info("outputs ready",
		"motor_port", b.setup.MotorPort, "drive", drive,
		"light_port", b.setup.LightPort, "aux_light_port", aux)

	return &hubOutput{
		hub:       b.hub,
		motorPort: b.setup.MotorPort,
		drive:     drive,
		lightPort: b.setup.LightPort,
		auxPort:   aux,
		logger:    b.logger,
	}, nil
}

// await runs probes in order until one succeeds. After a failed round it
// blinks tag and starts over.
func (b *outputBuilder) await(ctx context.Context, device, port string, probes []DriveProbe, tag IndicatorTag) (hubproto.DeviceKind, error) {
	for round := 1; ; round++ {
		var errs []error
		for _, p := range probes {
			attempts := mathx.Max(p.Attempts, 1)
			for i := 0; i < attempts; i++ {
				if err := ctx.Err(); err != nil {
					return "", err
				}
				err := b.hub.Probe(port, p.Kind, p.Timeout)
				if err == nil {
					b.logger.Info("device found", "device", device, "port", port, "kind", p.Kind)
					return p.Kind, nil
				}
				errs = append(errs, err)
			}
		}

		cerr := &DeviceConstructionError{Device: device, Port: port, Err: errors.Join(errs...)}
		b.logger.Warn("device missing; connect it to continue", "error", cerr, "round", round)

		if err := b.blink(ctx, tag); err != nil {
			return "", err
		}
	}
}

// blink shows tag for BlinkOn, then OFF for the rest of RetryDelay.
func (b *outputBuilder) blink(ctx context.Context, tag IndicatorTag) error {
	on := mathx.Min(b.setup.BlinkOn, b.setup.RetryDelay)

	_ = b.indicator.SetColor(tag, maxBrightness)
	if err := b.wait(ctx, on); err != nil {
		return err
	}
	_ = b.indicator.SetColor(IndicatorOff, 0)
	return b.wait(ctx, b.setup.RetryDelay-on)
}

// connectHub dials the hub until it answers. It only returns an error when
// ctx is done. No indicator is available before the hub is up.
func connectHub(ctx context.Context, client *HubClient, retry time.Duration, logger *slog.Logger) error {
	for attempt := 1; ; attempt++ {
		err := client.Connect(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("hub not reachable; retrying...",
			"error", &DeviceConstructionError{Device: "hub", Err: err}, "attempt", attempt)
		if err := sleepCtx(ctx, retry); err != nil {
			return err
		}
	}
}
