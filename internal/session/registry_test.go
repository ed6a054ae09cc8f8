package session

import (
	"sync"
	"testing"

	"github.com/pixil98/go-testutil"
)

type fakeTransport struct {
	probes int
	closes int
}

func (f *fakeTransport) Probe() error {
	f.probes++
	return nil
}

func (f *fakeTransport) Close() error {
	f.closes++
	return nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	a := r.Register(&fakeTransport{})
	b := r.Register(&fakeTransport{})

	if a.Id == "" || a.Id == b.Id {
		t.Fatalf("expected distinct ids, got %q and %q", a.Id, b.Id)
	}
	testutil.AssertEqual(t, "len", r.Len(), 2)
	testutil.AssertEqual(t, "alive by default", r.IsAlive(a.Id), true)
	testutil.AssertEqual(t, "open by default", r.IsOpen(a.Id), true)
	testutil.AssertEqual(t, "no player yet", a.PlayerId(), "")
}

func TestRegistry_UnregisterOnce(t *testing.T) {
	r := NewRegistry()
	c := r.Register(&fakeTransport{})

	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.Unregister(c.Id)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	testutil.AssertEqual(t, "winners", wins, 1)
	testutil.AssertEqual(t, "len", r.Len(), 0)
	testutil.AssertEqual(t, "open after unregister", r.IsOpen(c.Id), false)
}

func TestRegistry_Liveness(t *testing.T) {
	r := NewRegistry()
	c := r.Register(&fakeTransport{})

	c.SetAlive(false)
	testutil.AssertEqual(t, "after reset", r.IsAlive(c.Id), false)

	testutil.AssertEqual(t, "mark", r.MarkAlive(c.Id), true)
	testutil.AssertEqual(t, "after ack", r.IsAlive(c.Id), true)

	testutil.AssertEqual(t, "mark unknown", r.MarkAlive("nobody"), false)
	testutil.AssertEqual(t, "unknown alive", r.IsAlive("nobody"), false)
}

func TestRegistry_ForEachAllowsRemoval(t *testing.T) {
	r := NewRegistry()
	for range 3 {
		r.Register(&fakeTransport{})
	}

	seen := 0
	r.ForEach(func(c *Connection) {
		seen++
		r.Unregister(c.Id)
	})

	testutil.AssertEqual(t, "seen", seen, 3)
	testutil.AssertEqual(t, "len", r.Len(), 0)
}

func TestConnection_CloseOnce(t *testing.T) {
	ft := &fakeTransport{}
	r := NewRegistry()
	c := r.Register(ft)

	_ = c.Close()
	_ = c.Close()

	testutil.AssertEqual(t, "transport closes", ft.closes, 1)
	testutil.AssertEqual(t, "open", c.Open(), false)
	testutil.AssertEqual(t, "registry open", r.IsOpen(c.Id), false)
}
