package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-errors"
)

// Publisher publishes raw payloads to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Presence reports whether a connection can currently receive messages.
type Presence interface {
	IsOpen(connId string) bool
}

// Subject returns the delivery subject for a single connection.
func Subject(connId string) string {
	return fmt.Sprintf("session-%s", connId)
}

// Fanout delivers serialised events to sets of connections.
type Fanout struct {
	pub      Publisher
	presence Presence
}

func NewFanout(pub Publisher, presence Presence) *Fanout {
	return &Fanout{
		pub:      pub,
		presence: presence,
	}
}

// Broadcast serialises ev once and publishes it to every open target other
// than exclude. A failed recipient never stops delivery to the rest; the
// failures are returned together.
func (f *Fanout) Broadcast(ctx context.Context, targets []string, ev any, exclude string) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	el := errors.NewErrorList()
	for _, id := range targets {
		if id == exclude {
			continue
		}
		if f.presence != nil && !f.presence.IsOpen(id) {
			continue
		}
		if err := f.pub.Publish(Subject(id), data); err != nil {
			slog.WarnContext(ctx, "delivering event", "conn", id, "error", err)
			el.Add(fmt.Errorf("delivering to %s: %w", id, err))
		}
	}

	return el.Err()
}

// Send delivers ev to a single connection.
func (f *Fanout) Send(ctx context.Context, target string, ev any) error {
	return f.Broadcast(ctx, []string{target}, ev, "")
}
