package room

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-blox/internal/world"
)

const (
	codeChars  = "0123456789"
	codeLength = 6
)

// Presence reports whether a connection is still registered. A connection
// whose departure has run must not become a member again.
type Presence interface {
	IsOpen(connId string) bool
}

// Manager holds rooms by code and routes each connection to the one room it
// is a member of. Rooms are removed when their last member leaves.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	memberOf map[string]string

	out       Broadcaster
	presence  Presence
	newCode   func() (string, error)
	storeOpts []world.StoreOpt
}

type ManagerOpt func(*Manager)

// WithCodeGenerator overrides how room codes are generated.
func WithCodeGenerator(fn func() (string, error)) ManagerOpt {
	return func(m *Manager) {
		m.newCode = fn
	}
}

// WithPresence makes CreateRoom and JoinRoom refuse connections that are no
// longer registered.
func WithPresence(p Presence) ManagerOpt {
	return func(m *Manager) {
		m.presence = p
	}
}

// WithStoreOpts passes options to every room's entity store.
func WithStoreOpts(opts ...world.StoreOpt) ManagerOpt {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

func NewManager(out Broadcaster, opts ...ManagerOpt) *Manager {
	m := &Manager{
		rooms:    make(map[string]*Room),
		memberOf: make(map[string]string),
		out:      out,
		newCode:  generateCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRoom makes a room with a fresh code and joins the creator to it.
// Membership changes hold the manager lock for their whole duration so a
// concurrent departure of the same connection cannot interleave.
func (m *Manager) CreateRoom(ctx context.Context, connId, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.canEnter(connId); err != nil {
		return "", err
	}

	var code string
	for {
		c, err := m.newCode()
		if err != nil {
			return "", fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := m.rooms[c]; !exists {
			code = c
			break
		}
	}

	r := newRoom(code, m.out, m.storeOpts...)
	m.rooms[code] = r

	if err := r.join(ctx, connId, name); err != nil {
		delete(m.rooms, code)
		return "", err
	}
	m.memberOf[connId] = code

	slog.InfoContext(ctx, "room created", "room", code, "conn", connId)
	return code, nil
}

// JoinRoom adds connId to the room with the given code. The joiner receives
// the room's snapshot.
func (m *Manager) JoinRoom(ctx context.Context, connId, code, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.canEnter(connId); err != nil {
		return err
	}

	r, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	if err := r.join(ctx, connId, name); err != nil {
		return err
	}
	m.memberOf[connId] = code
	return nil
}

// canEnter checks that connId may become a member. Departures unregister
// before taking mu, so this must run under mu.
func (m *Manager) canEnter(connId string) error {
	if _, ok := m.memberOf[connId]; ok {
		return ErrAlreadyInRoom
	}
	if m.presence != nil && !m.presence.IsOpen(connId) {
		return ErrConnectionGone
	}
	return nil
}

// Leave runs the departure of connId from its room and tears the room down
// if it is now empty. A second Leave for the same departure returns
// ErrNotInRoom and does nothing.
func (m *Manager) Leave(ctx context.Context, connId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, ok := m.memberOf[connId]
	if !ok {
		return ErrNotInRoom
	}
	delete(m.memberOf, connId)

	r, ok := m.rooms[code]
	if !ok {
		return nil
	}

	if r.leave(ctx, connId) {
		delete(m.rooms, code)
		slog.InfoContext(ctx, "room removed", "room", code)
	}
	return nil
}

// ResolveRoomFor returns the code of the room connId is in.
func (m *Manager) ResolveRoomFor(connId string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.memberOf[connId]
	return code, ok
}

// RoomFor returns the room connId is in.
func (m *Manager) RoomFor(connId string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.memberOf[connId]
	if !ok {
		return nil, false
	}
	r, ok := m.rooms[code]
	return r, ok
}

// Get returns the room with the given code.
func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[code]
	return r, ok
}

// Len returns the number of open rooms.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// generateCode draws a numeric room code. Bytes at or above the largest
// multiple of len(codeChars) are redrawn so every digit is equally likely.
func generateCode() (string, error) {
	limit := byte(256 - 256%len(codeChars))
	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit || len(code) == codeLength {
				continue
			}
			code = append(code, codeChars[int(b)%len(codeChars)])
		}
	}
	return string(code), nil
}
