package messaging

import "time"

type NatsServerOpt func(*NatsServer)

// WithStartTimeout sets how long Start waits for the server to accept clients.
func WithStartTimeout(d time.Duration) NatsServerOpt {
	return func(n *NatsServer) {
		n.startupTimeout = d
	}
}

// WithHost sets the host the embedded server binds to.
func WithHost(host string) NatsServerOpt {
	return func(n *NatsServer) {
		n.host = host
	}
}

// WithPort sets the port for the embedded server. A negative port picks a
// random free one.
func WithPort(port int) NatsServerOpt {
	return func(n *NatsServer) {
		n.port = port
	}
}

// WithMaxPayload sets the largest single message the embedded server and its
// client accept. A non-positive value keeps DefaultMaxPayload.
func WithMaxPayload(size int32) NatsServerOpt {
	return func(n *NatsServer) {
		if size > 0 {
			n.maxPayload = size
		}
	}
}
