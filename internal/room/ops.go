package room

import (
	"context"
	"log/slog"

	"github.com/pixil98/go-blox/internal/protocol"
	"github.com/pixil98/go-blox/internal/world"
)

// References to entities that no longer exist are silent no-ops: a delete
// racing an update from another client is normal, not an error.

// lockMember locks the room and reports whether connId is still a member.
// The caller must unlock.
func (r *Room) lockMember(connId string) bool {
	r.mu.Lock()
	_, ok := r.members.Get(connId)
	return ok && !r.closed
}

// UpdatePlayer merges a movement update into the sender's player and relays
// it to everyone else.
func (r *Room) UpdatePlayer(ctx context.Context, connId string, patch world.Attributes) {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return
	}

	if e, ok := r.store.Get(connId); ok && (e.Kind != world.KindPlayer || e.Owner != connId) {
		slog.DebugContext(ctx, "ignoring update of player owned by another connection",
			"room", r.Code, "id", connId, "owner", e.Owner)
		return
	}

	e, created := r.store.Set(connId, world.KindPlayer, connId, patch)
	if created {
		r.owners.record(connId, e.Id)
	}
	r.broadcast(ctx, protocol.PlayerUpdateEvent{Id: connId, Attrs: patch}, connId, false)
}

// CreatePart places a persistent world part with a server-assigned id and
// echoes it to everyone, the creator included.
func (r *Room) CreatePart(ctx context.Context, connId string, attrs world.Attributes) (*world.Entity, bool) {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return nil, false
	}

	e, _ := r.store.Set("", world.KindPart, "", attrs)
	r.broadcast(ctx, protocol.NewWorldCreate(e), connId, true)
	return e.Clone(), true
}

// UpdatePart merges into an existing world part.
func (r *Room) UpdatePart(ctx context.Context, connId, id string, patch world.Attributes) bool {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return false
	}

	e, ok := r.store.Get(id)
	if !ok || e.Kind.Transient() {
		slog.DebugContext(ctx, "ignoring update of unknown part", "room", r.Code, "id", id)
		return false
	}
	r.store.Set(id, e.Kind, "", patch)
	r.broadcast(ctx, protocol.NewWorldUpdate(id, patch), connId, true)
	return true
}

// DeletePart removes a world part.
func (r *Room) DeletePart(ctx context.Context, connId, id string) bool {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return false
	}

	e, ok := r.store.Get(id)
	if !ok || e.Kind.Transient() {
		return false
	}
	r.store.Delete(id)
	r.broadcast(ctx, protocol.NewWorldDelete(id), connId, true)
	return true
}

// Attach adds an attachment to the sender's player. The event echoes so the
// sender learns the assigned attachment id.
func (r *Room) Attach(ctx context.Context, connId string, attrs world.Attributes) (*world.Attachment, bool) {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return nil, false
	}

	a, ok := r.store.Attach(connId, attrs)
	if !ok {
		return nil, false
	}
	r.broadcast(ctx, protocol.NewAvatarAttach(connId, a), connId, true)
	return &world.Attachment{Id: a.Id, Attrs: a.Attrs.Clone()}, true
}

// UpdateAttachment merges into one of the sender's attachments.
func (r *Room) UpdateAttachment(ctx context.Context, connId, attId string, patch world.Attributes) bool {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return false
	}

	if _, ok := r.store.UpdateAttachment(connId, attId, patch); !ok {
		return false
	}
	r.broadcast(ctx, protocol.NewAvatarUpdate(connId, attId, patch), connId, false)
	return true
}

// DeleteAttachment removes one of the sender's attachments.
func (r *Room) DeleteAttachment(ctx context.Context, connId, attId string) bool {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return false
	}

	if !r.store.DeleteAttachment(connId, attId) {
		return false
	}
	r.broadcast(ctx, protocol.NewAvatarDelete(connId, attId), connId, false)
	return true
}

// Set is the kind-tagged create-or-merge. Transient entities are owned by
// their creator and only the owner may change them. A player entity always
// carries its connection's id. Persistent kinds echo; transient kinds echo
// only on creation, so the creator learns the id.
func (r *Room) Set(ctx context.Context, connId, id string, kind world.Kind, patch world.Attributes) (*world.Entity, bool) {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return nil, false
	}

	if kind == world.KindPlayer && id != connId {
		slog.DebugContext(ctx, "ignoring set of another connection's player", "room", r.Code, "id", id, "conn", connId)
		return nil, false
	}

	if existing, ok := r.store.Get(id); ok && existing.Kind.Transient() && existing.Owner != connId {
		slog.DebugContext(ctx, "ignoring set of entity owned by another connection",
			"room", r.Code, "id", id, "owner", existing.Owner, "conn", connId)
		return nil, false
	}

	e, created := r.store.Set(id, kind, connId, patch)
	if created && e.Kind.Transient() {
		r.owners.record(connId, e.Id)
	}

	echo := created || !e.Kind.Transient()
	r.broadcast(ctx, protocol.NewSet(e.Id, e.Kind, patch), connId, echo)
	return e.Clone(), true
}

// Delete removes any entity the sender may mutate. Players are removed only
// by leaving the room.
func (r *Room) Delete(ctx context.Context, connId, id string) bool {
	ok := r.lockMember(connId)
	defer r.mu.Unlock()
	if !ok {
		return false
	}

	e, ok := r.store.Get(id)
	if !ok {
		return false
	}
	if e.Kind.Transient() && e.Owner != connId {
		slog.DebugContext(ctx, "ignoring delete of entity owned by another connection",
			"room", r.Code, "id", id, "owner", e.Owner, "conn", connId)
		return false
	}
	if e.Kind == world.KindPlayer {
		slog.DebugContext(ctx, "ignoring delete of a player", "room", r.Code, "id", id, "conn", connId)
		return false
	}

	r.store.Delete(id)
	if e.Kind.Transient() {
		r.owners.forget(connId, id)
	}
	r.broadcast(ctx, protocol.NewEntityDelete(id), connId, !e.Kind.Transient())
	return true
}
