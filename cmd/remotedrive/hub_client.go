package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"remotedrive/internal/hubproto"
)

// HubClientInterface defines the hub operations used by the outputs.
// This allows for mocking in tests.
type HubClientInterface interface {
	Probe(port string, kind hubproto.DeviceKind, timeout time.Duration) error
	SetMotor(port string, duty int, kind hubproto.DeviceKind) error
	SetLight(port string, brightness int) error
	LightOff(port string) error
	SetIndicator(color string, brightness int) error
}

// HubClient manages WebSocket communication with the hub bridge.
//
// Every call is a request/response round trip. A failed write or read marks
// the connection broken; the next call dials again once.
type HubClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
}

// NewHubClient creates a hub client. It does not connect; call Connect.
func NewHubClient(wsURL string, logger *slog.Logger, readTimeoutMS int) (*HubClient, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid websocket URL %q: scheme must be ws or wss", wsURL)
	}

	return &HubClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: time.Duration(readTimeoutMS) * time.Millisecond,
	}, nil
}

// Connect dials the hub once, replacing any existing connection.
func (c *HubClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialLocked(ctx)
}

func (c *HubClient) dialLocked(ctx context.Context) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	c.logger.Info("connected to hub", "url", c.url)
	return nil
}

// Connected reports whether a connection is currently open.
func (c *HubClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// sendAndRead sends a request frame and waits for one response frame.
func (c *HubClient) sendAndRead(payload []byte, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.logger.Warn("hub connection lost; reconnecting...")
		if err := c.dialLocked(context.Background()); err != nil {
			return nil, fmt.Errorf("no hub connection: %w", err)
		}
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropLocked()
		return nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetReadDeadline(time.Time{})
		}
	}()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		// A late response would be read as the answer to the next request.
		c.dropLocked()
		return nil, err
	}

	return message, nil
}

func (c *HubClient) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// do runs one command and converts the hub's result code into an error.
func (c *HubClient) do(cmd hubproto.Command, args any, timeout time.Duration) error {
	payload, err := hubproto.Encode(cmd, args)
	if err != nil {
		return fmt.Errorf("encode %s: %w", cmd, err)
	}

	response, err := c.sendAndRead(payload, timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	res, err := hubproto.DecodeResult(cmd, response)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// Probe asks whether a device of kind is attached to port.
func (c *HubClient) Probe(port string, kind hubproto.DeviceKind, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.readTimeout
	}
	err := c.do(hubproto.CmdProbe, hubproto.ProbeArgs{Port: port, Device: kind}, timeout)
	c.logger.Debug("Probe", "port", port, "device", kind, "error", err)
	return err
}

// SetMotor sets the motor duty in percent.
func (c *HubClient) SetMotor(port string, duty int, kind hubproto.DeviceKind) error {
	return c.do(hubproto.CmdSetMotorDuty, hubproto.MotorArgs{Port: port, Duty: duty, Device: kind}, c.readTimeout)
}

// SetLight sets a light's brightness in percent.
func (c *HubClient) SetLight(port string, brightness int) error {
	return c.do(hubproto.CmdSetLight, hubproto.LightArgs{Port: port, Brightness: brightness}, c.readTimeout)
}

// LightOff switches a light off.
func (c *HubClient) LightOff(port string) error {
	return c.do(hubproto.CmdLightOff, hubproto.LightOffArgs{Port: port}, c.readTimeout)
}

// SetIndicator sets the hub status light.
func (c *HubClient) SetIndicator(color string, brightness int) error {
	return c.do(hubproto.CmdSetIndicator, hubproto.IndicatorArgs{Color: color, Brightness: brightness}, c.readTimeout)
}

// Keepalive pings the hub every interval until ctx is done.
// A failed ping marks the connection broken so the next command redials.
func (c *HubClient) Keepalive(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.logger.Warn("hub ping failed", "error", err)
			}
		}
	}
}

var errNotConnected = errors.New("no hub connection")

func (c *HubClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errNotConnected
	}
	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.readTimeout)); err != nil {
		c.dropLocked()
		return err
	}
	return nil
}

// Close closes the WebSocket connection
func (c *HubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	return nil
}
