package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Transport is the per-connection primitive supplied by a listener.
// Probe sends a transport-level liveness probe; Close tears the connection down.
type Transport interface {
	Probe() error
	Close() error
}

// Connection is the registry's record of one live client.
// Other packages refer to connections by Id and look them up here.
type Connection struct {
	Id string

	transport Transport
	alive     atomic.Bool
	closed    atomic.Bool

	mu       sync.Mutex
	playerId string
}

// Alive reports whether the connection acknowledged its last probe.
func (c *Connection) Alive() bool {
	return c.alive.Load()
}

// SetAlive sets the liveness flag.
func (c *Connection) SetAlive(alive bool) {
	c.alive.Store(alive)
}

// Probe sends a liveness probe over the transport.
func (c *Connection) Probe() error {
	return c.transport.Probe()
}

// Close closes the transport. Subsequent calls are no-ops.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.transport.Close()
}

// Open reports whether the connection can still receive messages.
func (c *Connection) Open() bool {
	return !c.closed.Load()
}

// PlayerId returns the player entity assigned to this connection, or "".
func (c *Connection) PlayerId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerId
}

// SetPlayerId assigns the connection's player entity.
func (c *Connection) SetPlayerId(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerId = id
}

// Registry tracks live connections. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
	}
}

// Register records a new connection and returns it. Registration does not
// announce anything; callers decide when there is state to broadcast.
func (r *Registry) Register(t Transport) *Connection {
	c := &Connection{
		Id:        uuid.NewString(),
		transport: t,
	}
	c.alive.Store(true)

	r.mu.Lock()
	r.conns[c.Id] = c
	r.mu.Unlock()

	return c
}

// Unregister removes a connection. It returns true only for the call that
// actually removed it, which lets competing close paths agree on a single
// owner of the departure.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Get returns the connection with the given id.
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	return c, ok
}

// ForEach calls fn for every registered connection. fn runs without the
// registry lock held, so it may register or unregister.
func (r *Registry) ForEach(fn func(*Connection)) {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		fn(c)
	}
}

// MarkAlive records a probe acknowledgment.
func (r *Registry) MarkAlive(id string) bool {
	c, ok := r.Get(id)
	if !ok {
		return false
	}
	c.SetAlive(true)
	return true
}

// IsAlive reports the liveness flag of a registered connection.
func (r *Registry) IsAlive(id string) bool {
	c, ok := r.Get(id)
	return ok && c.Alive()
}

// IsOpen reports whether id is registered and its transport not yet closed.
func (r *Registry) IsOpen(id string) bool {
	c, ok := r.Get(id)
	return ok && c.Open()
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
