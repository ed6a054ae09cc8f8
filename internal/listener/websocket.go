package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

type WebsocketListener struct {
	port  uint16
	path  string
	cm    *ConnectionManager
	ready <-chan struct{}
}

// NewWebsocketListener serves websocket upgrades on path. When ready is not
// nil the listener does not accept connections until it is closed.
func NewWebsocketListener(port uint16, path string, cm *ConnectionManager, ready <-chan struct{}) *WebsocketListener {
	return &WebsocketListener{
		port:  port,
		path:  path,
		cm:    cm,
		ready: ready,
	}
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	if l.ready != nil {
		select {
		case <-l.ready:
		case <-ctx.Done():
			return nil
		}
	}

	// Create a cancelable context for all connections
	connCtx, cancelConns := context.WithCancel(context.Background())
	defer cancelConns()

	mux := http.NewServeMux()
	mux.Handle(l.path, l.cm.Handler(connCtx))
	svr := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	slog.InfoContext(ctx, "listening for websockets", "port", l.port, "path", l.path)

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	// When parent context is canceled, stop accepting and close all connections
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.WarnContext(ctx, "shutting down websocket listener", "error", err)
			}
			cancelConns()
		case <-done:
		}
	}()

	err = svr.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		cancelConns()
		l.cm.Wait()
		return nil
	}
	return fmt.Errorf("serving websockets on port %d: %w", l.port, err)
}
