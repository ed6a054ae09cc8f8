package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestNatsServer_NotStarted(t *testing.T) {
	s, err := NewNatsServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.Publish("session-a", []byte("hi"))
	testutil.AssertErrorContains(t, err, "not started")

	_, err = s.Subscribe("session-a", func([]byte) {})
	testutil.AssertErrorContains(t, err, "not started")
}

func startServer(t *testing.T, opts ...NatsServerOpt) (*NatsServer, context.Context) {
	t.Helper()

	s, err := NewNatsServer(append([]NatsServerOpt{WithPort(-1), WithStartTimeout(5 * time.Second)}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for nats")
	}
	return s, ctx
}

func TestNatsServer_DeliversInOrder(t *testing.T) {
	s, ctx := startServer(t)

	got := make(chan string, 3)
	unsub, err := s.Subscribe(Subject("a"), func(data []byte) { got <- string(data) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsub()

	f := NewFanout(s, nil)
	for _, n := range []int{1, 2, 3} {
		if err := f.Send(ctx, "a", n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for _, exp := range []string{"1", "2", "3"} {
		select {
		case msg := <-got:
			testutil.AssertEqual(t, "message", msg, exp)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", exp)
		}
	}
}

func TestNatsServer_MaxPayload(t *testing.T) {
	tests := map[string]struct {
		opts   []NatsServerOpt
		size   int
		expErr string
	}{
		"default fits a multi-megabyte snapshot": {
			size: 2 * 1024 * 1024,
		},
		"configured limit rejects larger events": {
			opts:   []NatsServerOpt{WithMaxPayload(4096)},
			size:   8192,
			expErr: "maximum payload",
		},
		"configured limit accepts smaller events": {
			opts: []NatsServerOpt{WithMaxPayload(4096)},
			size: 1024,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := startServer(t, tt.opts...)

			got := make(chan int, 1)
			unsub, err := s.Subscribe(Subject("a"), func(data []byte) { got <- len(data) })
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer unsub()

			err = s.Publish(Subject("a"), []byte(strings.Repeat("x", tt.size)))
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			select {
			case n := <-got:
				testutil.AssertEqual(t, "delivered bytes", n, tt.size)
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for delivery")
			}
		})
	}
}
