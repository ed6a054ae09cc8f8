package command

import (
	"fmt"

	"github.com/pixil98/go-blox/internal/dispatch"
	"github.com/pixil98/go-blox/internal/driver"
	"github.com/pixil98/go-blox/internal/liveness"
	"github.com/pixil98/go-blox/internal/messaging"
	"github.com/pixil98/go-blox/internal/room"
	"github.com/pixil98/go-blox/internal/session"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Outbound events flow through the embedded bus
	bus, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	conns := session.NewRegistry()
	fanout := messaging.NewFanout(bus, conns)
	rooms := room.NewManager(fanout, room.WithPresence(conns))
	dispatcher := dispatch.New(rooms, conns, fanout)

	// Liveness probing runs on the driver
	driver := driver.NewDriver(
		driver.WithTask("liveness", cfg.probeInterval(), liveness.NewMonitor(conns, dispatcher)),
	)

	cm := cfg.Listener.BuildConnectionManager(conns, dispatcher, bus)
	listener, err := cfg.Listener.BuildListener(cm, bus.Ready())
	if err != nil {
		return nil, fmt.Errorf("creating listener: %w", err)
	}

	// Create a worker list
	return service.WorkerList{
		"nats":     bus,
		"driver":   driver,
		"listener": listener,
	}, nil
}
