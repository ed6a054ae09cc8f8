package listener

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrSessionClosed  = errors.New("session closed")
)

// wsSession is the transport for one websocket connection. All data frames
// are written by writePump; probes and close frames use WriteControl, which
// gorilla allows concurrently with other writers.
type wsSession struct {
	ws   *websocket.Conn
	out  chan []byte
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newWsSession(ws *websocket.Conn, buffer int) *wsSession {
	return &wsSession{
		ws:   ws,
		out:  make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send queues a frame without blocking. A full queue drops the frame.
func (s *wsSession) Send(data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.out <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Probe sends a ping; the pong handler records the acknowledgment.
func (s *wsSession) Probe() error {
	return s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *wsSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.closeErr = s.ws.Close()
	})
	return s.closeErr
}

func (s *wsSession) writePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = s.Close()
				return
			}
		}
	}
}
