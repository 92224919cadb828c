package main

// Linux input event codes (from <linux/input-event-codes.h>)
const (
	EV_KEY  = 0x01
	KEY_MAX = 0x2ff

	BTN_SOUTH      = 0x130
	BTN_EAST       = 0x131
	BTN_NORTH      = 0x133
	BTN_MODE       = 0x13c
	BTN_DPAD_UP    = 0x220
	BTN_DPAD_DOWN  = 0x221
	BTN_DPAD_LEFT  = 0x222
	BTN_DPAD_RIGHT = 0x223
)

// Control loop defaults
const (
	defaultPollPeriodMS     = 20 // Tick duration (ms)
	defaultMotorMaxStep     = 10 // Motor steps 0..10 -> duty 0..100
	defaultMotorSlewPerTick = 3  // Duty % change per tick
	defaultLightMaxLevel    = 10 // Light levels 0..10 -> brightness 0..100
	defaultLightSlewPerTick = 5  // Brightness % change per tick

	maxDuty       = 100
	maxBrightness = 100
)

// Remote link defaults
const (
	defaultRemoteConnectTimeoutMS = 5000 // Single link acquisition attempt (ms)
	defaultRemoteRetryDelayMS     = 300  // Delay between failed acquisition attempts (ms)
)

// Hub defaults
const (
	defaultHubWsURL         = "ws://127.0.0.1:8765"
	defaultHubTimeoutMS     = 500 // Read timeout for hub responses (ms)
	defaultHubKeepaliveSec  = 15
	defaultConstructRetryMS = 500 // Delay between output device construction attempts (ms)
	defaultProbeTimeoutMS   = 1000
	defaultProbeAttempts    = 1
	defaultIndicatorBlinkMS = 200
	defaultMotorPort        = "A"
	defaultLightPort        = "B"
	defaultLogLevel         = "info"
)
