package protocol

import (
	"encoding/json"

	"github.com/pixil98/go-blox/internal/world"
)

// Server event types.
const (
	TypeAck          = "ack"
	TypeWelcome      = "welcome"
	TypePlayerJoin   = "player_join"
	TypePlayerLeave  = "player_leave"
	TypeEntityDelete = "entity_delete"
	TypeHostChange   = "host_change"
)

// Ack answers a request that carried an ack number.
type Ack struct {
	Type string `json:"type"`
	Ack  int64  `json:"ack"`
	Data any    `json:"data,omitempty"`
}

func NewAck(n int64, data any) Ack {
	return Ack{Type: TypeAck, Ack: n, Data: data}
}

type CreateRoomResult struct {
	Code string `json:"code"`
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// IdResult acknowledges a request that created something with a
// server-assigned id.
type IdResult struct {
	Success bool   `json:"success"`
	Id      string `json:"id"`
}

// Welcome is the initial snapshot pushed to a connection entering a room.
// It never contains the receiver's own player.
type Welcome struct {
	Type    string          `json:"type"`
	Code    string          `json:"code"`
	Self    string          `json:"self"`
	Host    string          `json:"host"`
	Players []*world.Entity `json:"players"`
	World   []*world.Entity `json:"world"`
}

// NewWelcome splits an ordered snapshot into players and everything else.
func NewWelcome(code, self, host string, snapshot []*world.Entity) Welcome {
	w := Welcome{
		Type:    TypeWelcome,
		Code:    code,
		Self:    self,
		Host:    host,
		Players: []*world.Entity{},
		World:   []*world.Entity{},
	}
	for _, e := range snapshot {
		switch {
		case e.Id == self:
		case e.Kind == world.KindPlayer:
			w.Players = append(w.Players, e)
		default:
			w.World = append(w.World, e)
		}
	}
	return w
}

// PlayerUpdateEvent is a movement broadcast. Attributes are flattened into
// the event object next to the id.
type PlayerUpdateEvent struct {
	Id    string
	Attrs world.Attributes
}

func (e PlayerUpdateEvent) MarshalJSON() ([]byte, error) {
	fields := e.Attrs.Fields()
	fields["type"], _ = json.Marshal(TypePlayerUpdate)
	fields["id"], _ = json.Marshal(e.Id)
	return json.Marshal(fields)
}

type EntityEvent struct {
	Type string        `json:"type"`
	Data *world.Entity `json:"data"`
}

func NewPlayerJoin(e *world.Entity) EntityEvent {
	return EntityEvent{Type: TypePlayerJoin, Data: e}
}

func NewWorldCreate(e *world.Entity) EntityEvent {
	return EntityEvent{Type: TypeWorldCreate, Data: e}
}

type PatchEvent struct {
	Type string           `json:"type"`
	Id   string           `json:"id"`
	Kind world.Kind       `json:"kind,omitempty"`
	Data world.Attributes `json:"data"`
}

func NewWorldUpdate(id string, patch world.Attributes) PatchEvent {
	return PatchEvent{Type: TypeWorldUpdate, Id: id, Data: patch}
}

func NewSet(id string, kind world.Kind, patch world.Attributes) PatchEvent {
	return PatchEvent{Type: TypeSet, Id: id, Kind: kind, Data: patch}
}

type IdEvent struct {
	Type string `json:"type"`
	Id   string `json:"id"`
}

func NewWorldDelete(id string) IdEvent  { return IdEvent{Type: TypeWorldDelete, Id: id} }
func NewPlayerLeave(id string) IdEvent  { return IdEvent{Type: TypePlayerLeave, Id: id} }
func NewEntityDelete(id string) IdEvent { return IdEvent{Type: TypeEntityDelete, Id: id} }
func NewHostChange(id string) IdEvent   { return IdEvent{Type: TypeHostChange, Id: id} }

type AvatarAttachEvent struct {
	Type     string            `json:"type"`
	PlayerId string            `json:"playerId"`
	Data     *world.Attachment `json:"data"`
}

func NewAvatarAttach(playerId string, a *world.Attachment) AvatarAttachEvent {
	return AvatarAttachEvent{Type: TypeAvatarAttach, PlayerId: playerId, Data: a}
}

type AvatarEvent struct {
	Type     string            `json:"type"`
	PlayerId string            `json:"playerId"`
	AttId    string            `json:"attId"`
	Data     *world.Attributes `json:"data,omitempty"`
}

func NewAvatarUpdate(playerId, attId string, patch world.Attributes) AvatarEvent {
	return AvatarEvent{Type: TypeAvatarUpdate, PlayerId: playerId, AttId: attId, Data: &patch}
}

func NewAvatarDelete(playerId, attId string) AvatarEvent {
	return AvatarEvent{Type: TypeAvatarDelete, PlayerId: playerId, AttId: attId}
}
