package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-blox/internal/protocol"
	"github.com/pixil98/go-blox/internal/room"
	"github.com/pixil98/go-blox/internal/session"
)

// HandlerFunc handles one client message kind. The returned value, when not
// nil, is sent back as the acknowledgment of a request that asked for one.
type HandlerFunc func(ctx context.Context, connId string, req *protocol.Request) (any, error)

// Sender delivers an event to a single connection.
type Sender interface {
	Send(ctx context.Context, target string, ev any) error
}

// Dispatcher routes decoded client frames to the handler for their type and
// owns the departure of a connection.
type Dispatcher struct {
	rooms    *room.Manager
	conns    *session.Registry
	out      Sender
	handlers map[string]HandlerFunc
}

func New(rooms *room.Manager, conns *session.Registry, out Sender) *Dispatcher {
	d := &Dispatcher{
		rooms:    rooms,
		conns:    conns,
		out:      out,
		handlers: make(map[string]HandlerFunc),
	}

	// Register built-in handlers
	for name, fn := range map[string]HandlerFunc{
		protocol.TypeCreateRoom:   d.createRoom,
		protocol.TypeJoinRoom:     d.joinRoom,
		protocol.TypeLeaveRoom:    d.leaveRoom,
		protocol.TypePlayerUpdate: d.playerUpdate,
		protocol.TypeWorldCreate:  d.worldCreate,
		protocol.TypeWorldUpdate:  d.worldUpdate,
		protocol.TypeWorldDelete:  d.worldDelete,
		protocol.TypeAvatarAttach: d.avatarAttach,
		protocol.TypeAvatarUpdate: d.avatarUpdate,
		protocol.TypeAvatarDelete: d.avatarDelete,
		protocol.TypeSet:          d.set,
		protocol.TypeDelete:       d.delete,
	} {
		_ = d.Register(name, fn)
	}

	return d
}

// Register adds a handler for a message type.
func (d *Dispatcher) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("message type cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("handler for %q already registered", name)
	}
	d.handlers[name] = fn
	return nil
}

// Dispatch handles one inbound frame from connId. Malformed frames are
// logged and dropped; the returned error is informational and never means
// the connection should be closed.
func (d *Dispatcher) Dispatch(ctx context.Context, connId string, data []byte) error {
	req, err := protocol.Decode(data)
	if err != nil {
		slog.WarnContext(ctx, "dropping malformed message", "conn", connId, "error", err)
		return err
	}

	fn, ok := d.handlers[req.Type]
	if !ok {
		err := fmt.Errorf("%w: unknown type %q", protocol.ErrMalformedMessage, req.Type)
		slog.WarnContext(ctx, "dropping malformed message", "conn", connId, "error", err)
		return err
	}

	result, err := fn(ctx, connId, req)
	switch {
	case errors.Is(err, protocol.ErrMalformedMessage):
		slog.WarnContext(ctx, "dropping malformed message", "conn", connId, "type", req.Type, "error", err)
		return err
	case errors.Is(err, room.ErrNotInRoom):
		slog.DebugContext(ctx, "ignoring message outside a room", "conn", connId, "type", req.Type)
		return err
	case errors.Is(err, room.ErrConnectionGone):
		slog.DebugContext(ctx, "ignoring message from departed connection", "conn", connId, "type", req.Type)
		return err
	case err != nil:
		slog.ErrorContext(ctx, "handling message", "conn", connId, "type", req.Type, "error", err)
		return err
	}

	if req.Ack != nil && result != nil {
		if err := d.out.Send(ctx, connId, protocol.NewAck(*req.Ack, result)); err != nil {
			slog.WarnContext(ctx, "sending ack", "conn", connId, "type", req.Type, "error", err)
		}
	}
	return nil
}

// Disconnect runs the departure of connId. Transport close and liveness
// eviction both end up here; only the first caller for a connection does
// any work.
func (d *Dispatcher) Disconnect(ctx context.Context, connId string) {
	if !d.conns.Unregister(connId) {
		return
	}

	err := d.rooms.Leave(ctx, connId)
	if err != nil && !errors.Is(err, room.ErrNotInRoom) {
		slog.ErrorContext(ctx, "leaving room on disconnect", "conn", connId, "error", err)
	}
	slog.InfoContext(ctx, "connection closed", "conn", connId)
}

// roomFor resolves the room a connection's message applies to.
func (d *Dispatcher) roomFor(connId string) (*room.Room, error) {
	r, ok := d.rooms.RoomFor(connId)
	if !ok {
		return nil, room.ErrNotInRoom
	}
	return r, nil
}
