package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pixil98/go-blox/internal/listener"
	"github.com/pixil98/go-blox/internal/session"
	"github.com/pixil98/go-errors"
)

const (
	DefaultPort = 8080
	DefaultPath = "/"
)

type ListenerConfig struct {
	Port       uint16  `json:"port"`
	Path       string  `json:"path"`
	ReadLimit  int64   `json:"read_limit"`
	SendBuffer int     `json:"send_buffer"`
	RateLimit  float64 `json:"rate_limit"`
	RateBurst  int     `json:"rate_burst"`
}

func (cl *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if _, err := cl.port(); err != nil {
		el.Add(err)
	}
	if cl.Path != "" && !strings.HasPrefix(cl.Path, "/") {
		el.Add(fmt.Errorf("path must start with /"))
	}
	if cl.ReadLimit < 0 {
		el.Add(fmt.Errorf("read_limit must not be negative"))
	}
	if cl.SendBuffer < 0 {
		el.Add(fmt.Errorf("send_buffer must not be negative"))
	}
	if cl.RateLimit > 0 && cl.RateBurst < 1 {
		el.Add(fmt.Errorf("rate_burst must be at least 1 when rate_limit is set"))
	}

	return el.Err()
}

// port resolves the listen port: the configured value, else the PORT
// environment value, else DefaultPort.
func (cl *ListenerConfig) port() (uint16, error) {
	if cl.Port != 0 {
		return cl.Port, nil
	}

	env := os.Getenv("PORT")
	if env == "" {
		return DefaultPort, nil
	}

	p, err := strconv.ParseUint(env, 10, 16)
	if err != nil || p == 0 {
		return 0, fmt.Errorf("PORT must be a positive port number, got %q", env)
	}
	return uint16(p), nil
}

func (cl *ListenerConfig) readLimit() int64 {
	if cl.ReadLimit == 0 {
		return listener.DefaultReadLimit
	}
	return cl.ReadLimit
}

func (cl *ListenerConfig) path() string {
	if cl.Path == "" {
		return DefaultPath
	}
	return cl.Path
}

func (cl *ListenerConfig) BuildConnectionManager(conns *session.Registry, handler listener.MessageHandler, bus listener.Subscriber) *listener.ConnectionManager {
	var opts []listener.ConnectionManagerOpt
	if cl.ReadLimit != 0 {
		opts = append(opts, listener.WithReadLimit(cl.ReadLimit))
	}
	if cl.SendBuffer != 0 {
		opts = append(opts, listener.WithSendBuffer(cl.SendBuffer))
	}
	if cl.RateLimit != 0 {
		opts = append(opts, listener.WithRateLimit(cl.RateLimit, cl.RateBurst))
	}

	return listener.NewConnectionManager(conns, handler, bus, opts...)
}

func (cl *ListenerConfig) BuildListener(cm *listener.ConnectionManager, ready <-chan struct{}) (*listener.WebsocketListener, error) {
	port, err := cl.port()
	if err != nil {
		return nil, err
	}
	return listener.NewWebsocketListener(port, cl.path(), cm, ready), nil
}
