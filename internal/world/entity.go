package world

import (
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

type Kind string

const (
	KindPlayer     Kind = "player"      // a connected client's avatar
	KindAvatarPart Kind = "avatar-part" // a free-standing part owned by a client
	KindPart       Kind = "part"        // a world-placed block, outlives its creator
)

// ParseKind maps a wire kind tag onto a Kind. Anything that is not a
// transient kind is a persistent world part.
func ParseKind(s string) (Kind, error) {
	switch s {
	case string(KindPlayer):
		return KindPlayer, nil
	case string(KindAvatarPart):
		return KindAvatarPart, nil
	case "", string(KindPart), "block", "world":
		return KindPart, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// Transient reports whether entities of this kind are owned by a connection
// and removed when it departs.
func (k Kind) Transient() bool {
	return k == KindPlayer || k == KindAvatarPart
}

// Attachment is an avatar part keyed inside its player's entity.
type Attachment struct {
	Id    string
	Attrs Attributes
}

func (a *Attachment) MarshalJSON() ([]byte, error) {
	fields := a.Attrs.Fields()
	fields["id"], _ = json.Marshal(a.Id)
	return json.Marshal(fields)
}

// Entity is a synchronised world object.
type Entity struct {
	Id    string
	Kind  Kind
	Owner string // connection id; empty for persistent kinds
	Attrs Attributes

	attachments *orderedmap.OrderedMap[string, *Attachment]
}

// Attachments returns the entity's attachments in insertion order.
func (e *Entity) Attachments() []*Attachment {
	if e.attachments == nil {
		return nil
	}
	out := make([]*Attachment, 0, e.attachments.Len())
	for el := e.attachments.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Attachment returns one attachment by id.
func (e *Entity) Attachment(id string) (*Attachment, bool) {
	if e.attachments == nil {
		return nil, false
	}
	return e.attachments.Get(id)
}

// Clone returns a deep copy that shares nothing with e.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		Id:    e.Id,
		Kind:  e.Kind,
		Owner: e.Owner,
		Attrs: e.Attrs.Clone(),
	}
	if e.attachments != nil {
		c.attachments = orderedmap.NewOrderedMap[string, *Attachment]()
		for el := e.attachments.Front(); el != nil; el = el.Next() {
			c.attachments.Set(el.Key, &Attachment{Id: el.Value.Id, Attrs: el.Value.Attrs.Clone()})
		}
	}
	return c
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	fields := e.Attrs.Fields()
	fields["id"], _ = json.Marshal(e.Id)
	fields["kind"], _ = json.Marshal(e.Kind)

	if e.Kind == KindPlayer {
		atts := make(map[string]*Attachment)
		for _, a := range e.Attachments() {
			atts[a.Id] = a
		}
		b, err := json.Marshal(atts)
		if err != nil {
			return nil, fmt.Errorf("marshaling attachments of %q: %w", e.Id, err)
		}
		fields["attachments"] = b
	}

	return json.Marshal(fields)
}
