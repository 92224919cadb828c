package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"remotedrive/internal/hubproto"
)

var indicatorColors = map[string]bool{
	"none": true, "green": true, "red": true, "yellow": true, "orange": true, "magenta": true,
}

// portState is what the simulator believes a port is doing.
type portState struct {
	Duty       int
	Brightness int
}

// simHub answers hub protocol commands against an in-memory device table.
type simHub struct {
	mu        sync.Mutex
	devices   map[string]hubproto.DeviceKind
	ports     map[string]portState
	indicator string
	logger    *slog.Logger
}

func newSimHub(logger *slog.Logger) *simHub {
	return &simHub{
		devices:   make(map[string]hubproto.DeviceKind),
		ports:     make(map[string]portState),
		indicator: "none",
		logger:    logger,
	}
}

// Attach connects a device to port.
func (h *simHub) Attach(port string, kind hubproto.DeviceKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices[port] = kind
	h.logger.Info("device attached", "port", port, "kind", kind)
}

// Detach removes whatever is on port.
func (h *simHub) Detach(port string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.devices, port)
	delete(h.ports, port)
	h.logger.Info("device detached", "port", port)
}

// Port returns the current state of port.
func (h *simHub) Port(port string) portState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ports[port]
}

// Handle processes one request frame and returns the response frame.
func (h *simHub) Handle(frame []byte) ([]byte, error) {
	cmd, raw, err := hubproto.Decode(frame)
	if err != nil {
		return nil, err
	}
	res := h.apply(cmd, raw)
	return hubproto.EncodeResult(cmd, res)
}

func invalid(format string, args ...any) hubproto.Result {
	return hubproto.Result{Result: hubproto.InvalidArgs, Message: fmt.Sprintf(format, args...)}
}

func (h *simHub) apply(cmd hubproto.Command, raw json.RawMessage) hubproto.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch cmd {
	case hubproto.CmdProbe:
		var a hubproto.ProbeArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return invalid("%v", err)
		}
		return h.expect(a.Port, a.Device)

	case hubproto.CmdSetMotorDuty:
		var a hubproto.MotorArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return invalid("%v", err)
		}
		if a.Duty < -100 || a.Duty > 100 {
			return invalid("duty %d out of range", a.Duty)
		}
		if res := h.expect(a.Port, a.Device); res.Result != hubproto.OK {
			return res
		}
		st := h.ports[a.Port]
		if st.Duty != a.Duty {
			h.logger.Info("[MOTOR]", "port", a.Port, "duty", a.Duty)
		}
		st.Duty = a.Duty
		h.ports[a.Port] = st

	case hubproto.CmdSetLight:
		var a hubproto.LightArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return invalid("%v", err)
		}
		if a.Brightness < 0 || a.Brightness > 100 {
			return invalid("brightness %d out of range", a.Brightness)
		}
		if res := h.expect(a.Port, hubproto.DeviceLight); res.Result != hubproto.OK {
			return res
		}
		h.setBrightness(a.Port, a.Brightness)

	case hubproto.CmdLightOff:
		var a hubproto.LightOffArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return invalid("%v", err)
		}
		if res := h.expect(a.Port, hubproto.DeviceLight); res.Result != hubproto.OK {
			return res
		}
		h.setBrightness(a.Port, 0)

	case hubproto.CmdSetIndicator:
		var a hubproto.IndicatorArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return invalid("%v", err)
		}
		if !indicatorColors[a.Color] {
			return invalid("unknown color %q", a.Color)
		}
		if h.indicator != a.Color {
			h.logger.Info("[INDICATOR]", "color", a.Color, "brightness", a.Brightness)
		}
		h.indicator = a.Color

	default:
		return hubproto.Result{Result: hubproto.Unsupported, Message: string(cmd)}
	}

	return hubproto.Result{Result: hubproto.OK}
}

// expect checks that port carries a device of kind. Caller holds h.mu.
func (h *simHub) expect(port string, kind hubproto.DeviceKind) hubproto.Result {
	got, ok := h.devices[port]
	if !ok {
		return hubproto.Result{Result: hubproto.NoDevice, Message: "port " + port}
	}
	if got != kind {
		return hubproto.Result{Result: hubproto.WrongDevice, Message: fmt.Sprintf("port %s has %s", port, got)}
	}
	return hubproto.Result{Result: hubproto.OK}
}

// setBrightness updates a light port. Caller holds h.mu.
func (h *simHub) setBrightness(port string, b int) {
	st := h.ports[port]
	if st.Brightness != b {
		if b == 0 {
			h.logger.Info("[LIGHT] off", "port", port)
		} else {
			h.logger.Info("[LIGHT]", "port", port, "brightness", b)
		}
	}
	st.Brightness = b
	h.ports[port] = st
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (h *simHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("client connected", "remote", r.RemoteAddr)

	// Clients ping; a silent client is dropped.
	const idle = 60 * time.Second
	conn.SetReadDeadline(time.Now().Add(idle))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(idle))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket error", "error", err)
			}
			h.logger.Info("client disconnected", "remote", r.RemoteAddr)
			return
		}
		conn.SetReadDeadline(time.Now().Add(idle))

		if messageType != websocket.TextMessage {
			continue
		}

		resp, err := h.Handle(message)
		if err != nil {
			h.logger.Warn("bad request", "error", err, "frame", string(message))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			h.logger.Warn("write failed", "error", err)
			return
		}
	}
}

// parseDevices parses a device table such as "A=dc_motor,B=light".
func parseDevices(s string) (map[string]hubproto.DeviceKind, error) {
	out := make(map[string]hubproto.DeviceKind)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, item := range strings.Split(s, ",") {
		port, kind, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok || port == "" {
			return nil, fmt.Errorf("invalid device %q (want PORT=KIND)", item)
		}
		switch k := hubproto.DeviceKind(kind); k {
		case hubproto.DeviceDCMotor, hubproto.DeviceMotor, hubproto.DeviceLight:
			out[port] = k
		default:
			return nil, fmt.Errorf("invalid device kind %q for port %s", kind, port)
		}
	}
	return out, nil
}

// sortedPorts returns the ports of a device table in order.
func sortedPorts(devices map[string]hubproto.DeviceKind) []string {
	ports := make([]string, 0, len(devices))
	for p := range devices {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	return ports
}
