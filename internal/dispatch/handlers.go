package dispatch

import (
	"context"
	"errors"

	"github.com/pixil98/go-blox/internal/protocol"
	"github.com/pixil98/go-blox/internal/room"
)

func (d *Dispatcher) createRoom(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.CreateRoom
	if err := req.Bind(&p); err != nil {
		return nil, err
	}

	code, err := d.rooms.CreateRoom(ctx, connId, p.Name)
	switch {
	case errors.Is(err, room.ErrAlreadyInRoom):
		return protocol.Result{Success: false, Message: "already in a room"}, nil
	case errors.Is(err, room.ErrSnapshotUndelivered):
		return protocol.Result{Success: false, Message: "room state could not be delivered"}, nil
	case err != nil:
		return nil, err
	}
	d.assignPlayer(connId)

	return protocol.CreateRoomResult{Code: code}, nil
}

func (d *Dispatcher) joinRoom(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.JoinRoom
	if err := req.Bind(&p); err != nil {
		return nil, err
	}

	err := d.rooms.JoinRoom(ctx, connId, p.Code, p.Name)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return protocol.Result{Success: false, Message: "room not found"}, nil
	case errors.Is(err, room.ErrAlreadyInRoom):
		return protocol.Result{Success: false, Message: "already in a room"}, nil
	case errors.Is(err, room.ErrSnapshotUndelivered):
		return protocol.Result{Success: false, Message: "room state could not be delivered"}, nil
	case err != nil:
		return nil, err
	}
	d.assignPlayer(connId)

	return protocol.Result{Success: true}, nil
}

func (d *Dispatcher) leaveRoom(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.LeaveRoom
	if err := req.Bind(&p); err != nil {
		return nil, err
	}

	if err := d.rooms.Leave(ctx, connId); errors.Is(err, room.ErrNotInRoom) {
		return protocol.Result{Success: false, Message: "not in a room"}, nil
	} else if err != nil {
		return nil, err
	}
	if c, ok := d.conns.Get(connId); ok {
		c.SetPlayerId("")
	}

	return protocol.Result{Success: true}, nil
}

// assignPlayer records that the connection's player entity now exists.
// Connection ids double as player ids.
func (d *Dispatcher) assignPlayer(connId string) {
	if c, ok := d.conns.Get(connId); ok {
		c.SetPlayerId(connId)
	}
}

func (d *Dispatcher) playerUpdate(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.PlayerUpdate
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	r.UpdatePlayer(ctx, connId, p.Attrs)
	return nil, nil
}

func (d *Dispatcher) worldCreate(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.WorldCreate
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	e, ok := r.CreatePart(ctx, connId, *p.Data)
	if !ok {
		return protocol.Result{Success: false}, nil
	}
	return protocol.IdResult{Success: true, Id: e.Id}, nil
}

func (d *Dispatcher) worldUpdate(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.WorldUpdate
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	return protocol.Result{Success: r.UpdatePart(ctx, connId, p.Id, *p.Data)}, nil
}

func (d *Dispatcher) worldDelete(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.WorldDelete
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	return protocol.Result{Success: r.DeletePart(ctx, connId, p.Id)}, nil
}

func (d *Dispatcher) avatarAttach(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.AvatarAttach
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	a, ok := r.Attach(ctx, connId, *p.Data)
	if !ok {
		return protocol.Result{Success: false}, nil
	}
	return protocol.IdResult{Success: true, Id: a.Id}, nil
}

func (d *Dispatcher) avatarUpdate(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.AvatarUpdate
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	return protocol.Result{Success: r.UpdateAttachment(ctx, connId, p.AttId, *p.Data)}, nil
}

func (d *Dispatcher) avatarDelete(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.AvatarDelete
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	return protocol.Result{Success: r.DeleteAttachment(ctx, connId, p.AttId)}, nil
}

func (d *Dispatcher) set(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.Set
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	e, ok := r.Set(ctx, connId, p.Id, p.ParsedKind, *p.Data)
	if !ok {
		return protocol.Result{Success: false}, nil
	}
	return protocol.IdResult{Success: true, Id: e.Id}, nil
}

func (d *Dispatcher) delete(ctx context.Context, connId string, req *protocol.Request) (any, error) {
	var p protocol.Delete
	if err := req.Bind(&p); err != nil {
		return nil, err
	}
	r, err := d.roomFor(connId)
	if err != nil {
		return nil, err
	}

	return protocol.Result{Success: r.Delete(ctx, connId, p.Id)}, nil
}
