package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/pixil98/go-blox/internal/protocol"
	"github.com/pixil98/go-blox/internal/world"
)

// Broadcaster delivers events to connections.
type Broadcaster interface {
	Broadcast(ctx context.Context, targets []string, ev any, exclude string) error
	Send(ctx context.Context, target string, ev any) error
}

// Room is an isolated synchronisation domain. Every read and write of its
// members, store, and ownership happens under mu, and events are published
// before mu is released, so peers never observe a half-applied change.
type Room struct {
	Code string

	mu      sync.Mutex
	members *orderedmap.OrderedMap[string, struct{}]
	host    string
	store   *world.Store
	owners  *ownership
	out     Broadcaster
	closed  bool
}

func newRoom(code string, out Broadcaster, storeOpts ...world.StoreOpt) *Room {
	return &Room{
		Code:    code,
		members: orderedmap.NewOrderedMap[string, struct{}](),
		store:   world.NewStore(storeOpts...),
		owners:  newOwnership(),
		out:     out,
	}
}

// defaultTransform places a new player at the origin.
func defaultTransform(name string) world.Attributes {
	return world.Attributes{
		X:    world.Float(0),
		Y:    world.Float(0),
		Z:    world.Float(0),
		Rot:  world.Float(0),
		Name: world.String(name),
	}
}

// join pushes the current snapshot to connId and then adds it as a member
// with a fresh player entity. The snapshot is sent first: a joiner that
// cannot receive it is not admitted and peers never hear of it.
func (r *Room) join(ctx context.Context, connId, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if name == "" {
		name = "Player " + connId[:min(4, len(connId))]
	}

	r.reclaimId(ctx, connId)

	host := r.host
	if host == "" {
		host = connId
	}
	welcome := protocol.NewWelcome(r.Code, connId, host, r.store.Snapshot())
	if err := r.out.Send(ctx, connId, welcome); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotUndelivered, err)
	}

	r.members.Set(connId, struct{}{})
	r.host = host

	player, created := r.store.Set(connId, world.KindPlayer, connId, defaultTransform(name))
	if created {
		r.owners.record(connId, player.Id)
	}
	r.broadcast(ctx, protocol.NewPlayerJoin(player), connId, false)

	slog.InfoContext(ctx, "joined room", "room", r.Code, "conn", connId, "members", r.members.Len())
	return nil
}

// reclaimId removes any entity already stored under connId. A connection's
// id is reserved for its player entity. Callers hold mu.
func (r *Room) reclaimId(ctx context.Context, connId string) {
	e, ok := r.store.Delete(connId)
	if !ok {
		return
	}
	if e.Kind.Transient() {
		r.owners.forget(e.Owner, connId)
	}
	slog.DebugContext(ctx, "reclaimed player id", "room", r.Code, "id", connId, "kind", e.Kind)
	r.broadcast(ctx, protocol.NewEntityDelete(connId), "", true)
}

// leave is the only path that removes a connection's entities. It deletes
// everything connId owns, notifying the remaining members, then drops the
// membership. It reports whether the room is now empty and closed.
func (r *Room) leave(ctx context.Context, connId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members.Get(connId); !ok {
		return r.closed
	}

	for _, id := range r.owners.take(connId) {
		e, ok := r.store.Delete(id)
		if !ok {
			continue
		}
		if e.Kind == world.KindPlayer {
			r.broadcast(ctx, protocol.NewPlayerLeave(id), connId, false)
		} else {
			r.broadcast(ctx, protocol.NewEntityDelete(id), connId, false)
		}
	}

	r.members.Delete(connId)

	if r.members.Len() == 0 {
		r.closed = true
		r.host = ""
		r.store = world.NewStore()
		slog.InfoContext(ctx, "room emptied", "room", r.Code)
		return true
	}

	if r.host == connId {
		r.host = r.members.Front().Key
		r.broadcast(ctx, protocol.NewHostChange(r.host), "", true)
	}

	slog.InfoContext(ctx, "left room", "room", r.Code, "conn", connId, "members", r.members.Len())
	return false
}

// broadcast sends ev to the room. With echo the sender receives it too;
// without, the sender is excluded. Callers hold mu.
func (r *Room) broadcast(ctx context.Context, ev any, sender string, echo bool) {
	exclude := sender
	if echo {
		exclude = ""
	}

	targets := make([]string, 0, r.members.Len())
	for el := r.members.Front(); el != nil; el = el.Next() {
		targets = append(targets, el.Key)
	}

	if err := r.out.Broadcast(ctx, targets, ev, exclude); err != nil {
		slog.DebugContext(ctx, "broadcast incomplete", "room", r.Code, "error", err)
	}
}

// Snapshot returns the room's entities in insertion order.
func (r *Room) Snapshot() []*world.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Snapshot()
}

// Members returns member connection ids in join order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, r.members.Len())
	for el := r.members.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// Host returns the current host connection id.
func (r *Room) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Owned returns how many entities connId currently owns here.
func (r *Room) Owned(connId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners.owned(connId)
}
