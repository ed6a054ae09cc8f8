package listener

import "golang.org/x/time/rate"

type ConnectionManagerOpt func(*ConnectionManager)

// WithReadLimit caps the size of a single inbound frame in bytes.
func WithReadLimit(n int64) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.readLimit = n
	}
}

// WithSendBuffer sets how many outbound frames may queue per connection.
func WithSendBuffer(n int) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		m.sendBuffer = n
	}
}

// WithRateLimit sets the sustained inbound frames per second and the burst
// allowed on top of it. A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) ConnectionManagerOpt {
	return func(m *ConnectionManager) {
		if perSecond <= 0 {
			m.rateLimit = rate.Inf
			return
		}
		m.rateLimit = rate.Limit(perSecond)
		m.rateBurst = burst
	}
}
