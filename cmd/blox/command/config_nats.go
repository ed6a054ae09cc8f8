package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-blox/internal/messaging"
	"github.com/pixil98/go-errors"
)

// natsPayloadCeiling is the embedded server's default max_pending; a
// max_payload above it is refused at startup.
const natsPayloadCeiling = 64 * 1024 * 1024

type NatsConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	StartTimeout string `json:"start_timeout"`
	MaxPayload   int64  `json:"max_payload"`
}

// options turns the config into server options, reporting every problem at
// once.
func (c *NatsConfig) options() ([]messaging.NatsServerOpt, error) {
	el := errors.NewErrorList()
	var opts []messaging.NatsServerOpt

	if c.StartTimeout != "" {
		d, err := time.ParseDuration(c.StartTimeout)
		switch {
		case err != nil:
			el.Add(fmt.Errorf("parsing start_timeout: %w", err))
		case d <= 0:
			el.Add(fmt.Errorf("start_timeout must be positive"))
		default:
			opts = append(opts, messaging.WithStartTimeout(d))
		}
	}

	if c.Host != "" {
		opts = append(opts, messaging.WithHost(c.Host))
	}

	switch {
	case c.Port < -1 || c.Port > 65535:
		el.Add(fmt.Errorf("port must be -1 (random) or a valid port number"))
	case c.Port != 0:
		opts = append(opts, messaging.WithPort(c.Port))
	}

	switch {
	case c.MaxPayload < 0 || c.MaxPayload > natsPayloadCeiling:
		el.Add(fmt.Errorf("max_payload must be between 0 and %d bytes", natsPayloadCeiling))
	case c.MaxPayload > 0:
		opts = append(opts, messaging.WithMaxPayload(int32(c.MaxPayload)))
	}

	if err := el.Err(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (c *NatsConfig) validate() error {
	_, err := c.options()
	return err
}

// maxPayload is the largest event the bus will carry.
func (c *NatsConfig) maxPayload() int64 {
	if c.MaxPayload > 0 {
		return c.MaxPayload
	}
	return messaging.DefaultMaxPayload
}

func (c *NatsConfig) buildNatsServer() (*messaging.NatsServer, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	return messaging.NewNatsServer(opts...)
}
