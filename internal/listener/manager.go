package listener

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-blox/internal/messaging"
	"github.com/pixil98/go-blox/internal/session"
	"golang.org/x/time/rate"
)

const (
	DefaultReadLimit  = 64 * 1024
	DefaultSendBuffer = 256
	DefaultRateLimit  = 60
	DefaultRateBurst  = 120
)

// MessageHandler consumes inbound frames and runs departures.
type MessageHandler interface {
	Dispatch(ctx context.Context, connId string, data []byte) error
	Disconnect(ctx context.Context, connId string)
}

// Subscriber delivers messages published to a subject.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// ConnectionManager turns accepted websocket connections into registered
// sessions and pumps frames between the socket, the handler, and the bus.
type ConnectionManager struct {
	conns    *session.Registry
	handler  MessageHandler
	bus      Subscriber
	upgrader websocket.Upgrader

	readLimit  int64
	sendBuffer int
	rateLimit  rate.Limit
	rateBurst  int

	wg sync.WaitGroup
}

func NewConnectionManager(conns *session.Registry, handler MessageHandler, bus Subscriber, opts ...ConnectionManagerOpt) *ConnectionManager {
	m := &ConnectionManager{
		conns:   conns,
		handler: handler,
		bus:     bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		readLimit:  DefaultReadLimit,
		sendBuffer: DefaultSendBuffer,
		rateLimit:  DefaultRateLimit,
		rateBurst:  DefaultRateBurst,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Handler returns an http.Handler that accepts websocket connections. Every
// connection it accepts is closed when ctx ends.
func (m *ConnectionManager) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.wg.Add(1)
		defer m.wg.Done()
		m.AcceptConnection(ctx, w, r)
	})
}

// Wait blocks until every accepted connection has finished.
func (m *ConnectionManager) Wait() {
	m.wg.Wait()
}

// AcceptConnection upgrades the request and runs the connection until the
// socket fails or ctx ends. The departure runs exactly once on the way out.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "upgrading connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	s := newWsSession(ws, m.sendBuffer)
	c := m.conns.Register(s)
	slog.InfoContext(ctx, "connection opened", "conn", c.Id, "remote", r.RemoteAddr)

	unsubscribe, err := m.bus.Subscribe(messaging.Subject(c.Id), func(data []byte) {
		if err := s.Send(data); err != nil {
			slog.WarnContext(ctx, "queueing outbound message", "conn", c.Id, "error", err)
		}
	})
	if err != nil {
		slog.ErrorContext(ctx, "subscribing connection", "conn", c.Id, "error", err)
		_ = c.Close()
		m.handler.Disconnect(ctx, c.Id)
		return
	}
	defer unsubscribe()

	ws.SetReadLimit(m.readLimit)
	ws.SetPongHandler(func(string) error {
		m.conns.MarkAlive(c.Id)
		return nil
	})

	go s.writePump()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	m.readLoop(ctx, c.Id, ws)

	_ = c.Close()
	m.handler.Disconnect(ctx, c.Id)
}

func (m *ConnectionManager) readLoop(ctx context.Context, connId string, ws *websocket.Conn) {
	limiter := rate.NewLimiter(m.rateLimit, m.rateBurst)

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(ctx, "reading from connection", "conn", connId, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			slog.WarnContext(ctx, "dropping message over rate limit", "conn", connId)
			continue
		}

		// Failures are logged by the handler and never end the connection.
		_ = m.handler.Dispatch(ctx, connId, data)
	}
}
