package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-blox/internal/liveness"
	"github.com/pixil98/go-errors"
)

type Config struct {
	ProbeInterval string         `json:"probe_interval"`
	Listener      ListenerConfig `json:"listener"`
	Nats          NatsConfig     `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.ProbeInterval != "" {
		d, err := time.ParseDuration(c.ProbeInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing probe_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("probe_interval must be at least 1 second"))
		}
	}

	el.Add(c.Listener.validate())
	el.Add(c.Nats.validate())

	// A frame the listener accepts must fit in the event that relays it.
	if c.Listener.readLimit() > c.Nats.maxPayload() {
		el.Add(fmt.Errorf("listener read_limit (%d) exceeds nats max_payload (%d)", c.Listener.readLimit(), c.Nats.maxPayload()))
	}

	return el.Err()
}

// probeInterval returns the liveness probe period. Validate has already
// rejected unparseable values.
func (c *Config) probeInterval() time.Duration {
	d, err := time.ParseDuration(c.ProbeInterval)
	if err != nil {
		return liveness.DefaultProbeInterval
	}
	return d
}
