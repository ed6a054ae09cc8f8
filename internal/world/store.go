package world

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"
)

// Store is the authoritative entity map for one room, ordered by insertion.
// It does no locking of its own; the owning room serialises every call.
type Store struct {
	entities *orderedmap.OrderedMap[string, *Entity]
	newId    func() string
}

type StoreOpt func(*Store)

// WithIdGenerator overrides how server-assigned identifiers are minted.
func WithIdGenerator(fn func() string) StoreOpt {
	return func(s *Store) {
		s.newId = fn
	}
}

func NewStore(opts ...StoreOpt) *Store {
	s := &Store{
		entities: orderedmap.NewOrderedMap[string, *Entity](),
		newId:    NewId,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewId returns a short random identifier.
func NewId() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// Len returns the number of top-level entities.
func (s *Store) Len() int {
	return s.entities.Len()
}

// Get returns the live entity with the given id.
func (s *Store) Get(id string) (*Entity, bool) {
	return s.entities.Get(id)
}

// Set creates the entity when id is absent and shallow-merges attrs into it
// when present. An empty id always creates with a fresh server-assigned id.
// Kind and owner are fixed at creation; later calls only merge attributes.
func (s *Store) Set(id string, kind Kind, owner string, attrs Attributes) (*Entity, bool) {
	if id != "" {
		if e, ok := s.entities.Get(id); ok {
			e.Attrs.Merge(attrs)
			return e, false
		}
	} else {
		id = s.freshId(func(id string) bool {
			_, ok := s.entities.Get(id)
			return ok
		})
	}

	e := &Entity{
		Id:    id,
		Kind:  kind,
		Attrs: attrs.Clone(),
	}
	if kind.Transient() {
		e.Owner = owner
	}
	if kind == KindPlayer {
		e.attachments = orderedmap.NewOrderedMap[string, *Attachment]()
	}
	s.entities.Set(id, e)
	return e, true
}

// Delete removes an entity. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) (*Entity, bool) {
	e, ok := s.entities.Get(id)
	if !ok {
		return nil, false
	}
	s.entities.Delete(id)
	return e, true
}

// Attach creates an attachment under a player entity.
func (s *Store) Attach(ownerId string, attrs Attributes) (*Attachment, bool) {
	e, ok := s.entities.Get(ownerId)
	if !ok || e.attachments == nil {
		return nil, false
	}
	id := s.freshId(func(id string) bool {
		_, ok := e.attachments.Get(id)
		return ok
	})
	a := &Attachment{Id: id, Attrs: attrs.Clone()}
	e.attachments.Set(id, a)
	return a, true
}

// UpdateAttachment merges attrs into an existing attachment.
func (s *Store) UpdateAttachment(ownerId, attId string, attrs Attributes) (*Attachment, bool) {
	e, ok := s.entities.Get(ownerId)
	if !ok {
		return nil, false
	}
	a, ok := e.Attachment(attId)
	if !ok {
		return nil, false
	}
	a.Attrs.Merge(attrs)
	return a, true
}

// DeleteAttachment removes one attachment.
func (s *Store) DeleteAttachment(ownerId, attId string) bool {
	e, ok := s.entities.Get(ownerId)
	if !ok || e.attachments == nil {
		return false
	}
	return e.attachments.Delete(attId)
}

// Snapshot returns copies of every entity in insertion order.
func (s *Store) Snapshot() []*Entity {
	out := make([]*Entity, 0, s.entities.Len())
	for el := s.entities.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.Clone())
	}
	return out
}

func (s *Store) freshId(taken func(string) bool) string {
	for {
		id := s.newId()
		if !taken(id) {
			return id
		}
	}
}
