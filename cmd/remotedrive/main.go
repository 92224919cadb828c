package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("remotedrive v%s\n", version)
	fmt.Println("Remote-controlled motor and light daemon for a hub bridge")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  remotedrive [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Polls a button remote (via a Linux input device) at a fixed rate and drives")
	fmt.Println("  a motor and a light on a hub over WebSocket. Button presses move discrete")
	fmt.Println("  targets; outputs ramp toward them with a per-tick slew limit. Losing the")
	fmt.Println("  remote stops the motor and switches the light off until it reconnects.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -remote-device string")
	fmt.Println("        Linux input event device for the remote (default \"/dev/input/event6\")")
	fmt.Println()
	fmt.Println("  -remote-name string")
	fmt.Println("        Find the remote by input device name instead of path")
	fmt.Println()
	fmt.Println("  -hub-ws-url string")
	fmt.Printf("        Hub bridge websocket URL (default %q)\n", defaultHubWsURL)
	fmt.Println()
	fmt.Println("  -poll-period-ms int")
	fmt.Printf("        Control loop period in ms (default %d)\n", defaultPollPeriodMS)
	fmt.Println()
	fmt.Println("  -motor-max-step int")
	fmt.Printf("        Number of motor speed steps (default %d)\n", defaultMotorMaxStep)
	fmt.Println()
	fmt.Println("  -motor-slew int")
	fmt.Printf("        Maximum motor duty change per tick in %% (default %d)\n", defaultMotorSlewPerTick)
	fmt.Println()
	fmt.Println("  -motor-bidirectional")
	fmt.Println("        Allow negative motor steps (reverse)")
	fmt.Println()
	fmt.Println("  -light-max-level int")
	fmt.Printf("        Number of light brightness levels (default %d)\n", defaultLightMaxLevel)
	fmt.Println()
	fmt.Println("  -light-slew int")
	fmt.Printf("        Maximum brightness change per tick in %% (default %d)\n", defaultLightSlewPerTick)
	fmt.Println()
	fmt.Println("  -indicator string")
	fmt.Println("        Status light mode: light, motor, none (default \"light\")")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start daemon with a config file")
	fmt.Println("  remotedrive -config /etc/remotedrive.yaml")
	fmt.Println()
	fmt.Println("  # Slower motor ramp, remote found by name")
	fmt.Println("  remotedrive -remote-name \"8BitDo Micro gamepad\" -motor-slew 1")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to the input device (run as root or add user to 'input' group)")
	fmt.Println("  - Use hub-sim to run without hardware")
	fmt.Println()
}

func main() {
	// Check for version flag early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath    = flag.String("config", "", "Path to YAML config file")
		remoteDevice  = flag.String("remote-device", "", "Linux input event device for the remote")
		remoteName    = flag.String("remote-name", "", "Input device name of the remote")
		hubWsURL      = flag.String("hub-ws-url", defaultHubWsURL, "Hub bridge websocket URL")
		pollPeriodMS  = flag.Int("poll-period-ms", defaultPollPeriodMS, "Control loop period in milliseconds")
		motorMaxStep  = flag.Int("motor-max-step", defaultMotorMaxStep, "Number of motor speed steps")
		motorSlew     = flag.Int("motor-slew", defaultMotorSlewPerTick, "Maximum motor duty change per tick (%)")
		motorBidir    = flag.Bool("motor-bidirectional", false, "Allow negative motor steps (reverse)")
		lightMaxLevel = flag.Int("light-max-level", defaultLightMaxLevel, "Number of light brightness levels")
		lightSlew     = flag.Int("light-slew", defaultLightSlewPerTick, "Maximum brightness change per tick (%)")
		indicatorMode = flag.String("indicator", string(IndicatorModeLight), "Status light mode: light, motor, none")
		logLevelStr   = flag.String("log-level", defaultLogLevel, "Log level: error, warn, info, debug")
		_             = flag.Bool("version", false, "Print version and exit")
		_             = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	// Only flags given explicitly override the config file.
	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "remote-device":
			o.RemoteDevice = remoteDevice
		case "remote-name":
			o.RemoteName = remoteName
		case "hub-ws-url":
			o.HubWsURL = hubWsURL
		case "poll-period-ms":
			o.PollPeriodMS = pollPeriodMS
		case "motor-max-step":
			o.MotorMaxStep = motorMaxStep
		case "motor-slew":
			o.MotorSlewPerTick = motorSlew
		case "motor-bidirectional":
			o.MotorBidirectional = motorBidir
		case "light-max-level":
			o.LightMaxLevel = lightMaxLevel
		case "light-slew":
			o.LightSlewPerTick = lightSlew
		case "indicator":
			o.IndicatorMode = indicatorMode
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("remotedrive stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}

// run builds the ports, then runs the control loop and the hub keepalive
// until ctx is canceled.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	keymap, err := cfg.ToKeymap()
	if err != nil {
		return err
	}
	ccfg := cfg.ToControlConfig()

	client, err := NewHubClient(cfg.Hub.WsURL, logger, cfg.Hub.TimeoutMS)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Debug("starting remotedrive", "version", version)
	logger.Debug("configuration",
		"remote_device", cfg.Remote.Device,
		"remote_name", cfg.Remote.Name,
		"hub_ws_url", cfg.Hub.WsURL,
		"motor_port", cfg.Hub.MotorPort,
		"light_port", cfg.Hub.LightPort,
		"aux_light_port", cfg.Hub.AuxLightPort,
		"poll_period_ms", cfg.Control.PollPeriodMS,
		"motor_max_step", ccfg.MotorMaxStep,
		"motor_slew_per_tick", ccfg.MotorSlewPerTick,
		"motor_bidirectional", ccfg.MotorBidirectional,
		"light_max_level", ccfg.LightMaxLevel,
		"light_slew_per_tick", ccfg.LightSlewPerTick,
		"indicator", ccfg.Indicator)

	if err := connectHub(ctx, client, time.Duration(defaultConstructRetryMS)*time.Millisecond, logger); err != nil {
		return ignoreCanceled(err)
	}

	var indicator IndicatorPort = nopIndicator{}
	if cfg.Indicator.Enabled {
		indicator = hubIndicator{hub: client}
	}

	output, err := newOutputBuilder(client, indicator, cfg.ToOutputSetup(), logger).Build(ctx)
	if err != nil {
		return ignoreCanceled(err)
	}

	input := newEvdevRemote(cfg.Remote.Device, cfg.Remote.Name, keymap, logger)
	sup := NewConnectionSupervisor(input, indicator,
		time.Duration(cfg.Remote.ConnectTimeoutMS)*time.Millisecond,
		time.Duration(cfg.Remote.RetryDelayMS)*time.Millisecond,
		logger)
	loop := NewControlLoop(input, output, indicator, sup, ccfg, logger)

	logger.Info("running",
		"remote", input.describe(),
		"hub", cfg.Hub.WsURL,
		"poll_period", ccfg.PollPeriod)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return client.Keepalive(gctx, time.Duration(cfg.Hub.KeepaliveSec)*time.Second)
	})
	return g.Wait()
}
