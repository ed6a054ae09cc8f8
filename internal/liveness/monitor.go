package liveness

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/go-blox/internal/session"
)

// DefaultProbeInterval is how often connections are probed.
const DefaultProbeInterval = 30 * time.Second

// Evictor runs the departure of a connection that was force-closed.
type Evictor interface {
	Disconnect(ctx context.Context, connId string)
}

// Monitor evicts connections that stop acknowledging probes. A connection
// that misses one full interval is closed on the next tick, so detection
// takes at most two intervals. Application traffic does not count as
// liveness.
type Monitor struct {
	conns *session.Registry
	evict Evictor
}

func NewMonitor(conns *session.Registry, evict Evictor) *Monitor {
	return &Monitor{
		conns: conns,
		evict: evict,
	}
}

// Tick runs one probe cycle.
func (m *Monitor) Tick(ctx context.Context) error {
	m.conns.ForEach(func(c *session.Connection) {
		if !c.Alive() {
			slog.InfoContext(ctx, "evicting unresponsive connection", "conn", c.Id)
			if err := c.Close(); err != nil {
				slog.DebugContext(ctx, "closing evicted connection", "conn", c.Id, "error", err)
			}
			m.evict.Disconnect(ctx, c.Id)
			return
		}

		c.SetAlive(false)
		if err := c.Probe(); err != nil {
			slog.DebugContext(ctx, "probing connection", "conn", c.Id, "error", err)
		}
	})
	return nil
}
