// hub-sim is a websocket hub bridge simulator for running remotedrive without
// hardware. It logs motor, light and indicator changes as they happen.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"remotedrive/internal/hubproto"
)

func main() {
	var (
		listen      = flag.String("listen", "127.0.0.1:8765", "Address to listen on")
		devices     = flag.String("devices", "A=dc_motor,B=light", "Attached devices as PORT=KIND,... (kinds: dc_motor, motor, light)")
		attachAfter = flag.Duration("attach-after", 0, "Keep all ports empty for this long after start (simulates unplugged devices)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	table, err := parseDevices(*devices)
	if err != nil {
		logger.Error("invalid -devices", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Error("listen failed", "addr", *listen, "error", err)
		os.Exit(1)
	}

	if err := serve(ctx, ln, newSimHub(logger), table, *attachAfter, logger); err != nil {
		logger.Error("hub-sim stopped", "error", err)
		os.Exit(1)
	}
}

// serve runs the websocket server on ln until ctx is canceled. Devices in
// table are attached after attachAfter.
func serve(ctx context.Context, ln net.Listener, hub *simHub, table map[string]hubproto.DeviceKind, attachAfter time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           hub,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if attachAfter > 0 {
			logger.Info("ports empty", "attach_after", attachAfter)
			t := time.NewTimer(attachAfter)
			defer t.Stop()
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
		for _, port := range sortedPorts(table) {
			hub.Attach(port, table[port])
		}
		return nil
	})

	return g.Wait()
}
