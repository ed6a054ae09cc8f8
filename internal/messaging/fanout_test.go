package messaging

import (
	"context"
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

type recordingPublisher struct {
	published map[string][]string
	failFor   map[string]bool
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	if p.failFor[subject] {
		return fmt.Errorf("connection reset")
	}
	if p.published == nil {
		p.published = map[string][]string{}
	}
	p.published[subject] = append(p.published[subject], string(data))
	return nil
}

type openSet map[string]bool

func (o openSet) IsOpen(id string) bool { return o[id] }

func TestFanout_Broadcast(t *testing.T) {
	tests := map[string]struct {
		targets  []string
		exclude  string
		open     openSet
		failFor  []string
		expTo    []string
		expNotTo []string
		expErr   string
	}{
		"echo reaches everyone": {
			targets: []string{"a", "b", "c"},
			open:    openSet{"a": true, "b": true, "c": true},
			expTo:   []string{"a", "b", "c"},
		},
		"no-echo skips the sender": {
			targets:  []string{"a", "b", "c"},
			exclude:  "a",
			open:     openSet{"a": true, "b": true, "c": true},
			expTo:    []string{"b", "c"},
			expNotTo: []string{"a"},
		},
		"closed connections are skipped": {
			targets:  []string{"a", "b"},
			open:     openSet{"a": true},
			expTo:    []string{"a"},
			expNotTo: []string{"b"},
		},
		"failed recipient does not stop delivery": {
			targets: []string{"a", "b", "c"},
			open:    openSet{"a": true, "b": true, "c": true},
			failFor: []string{"b"},
			expTo:   []string{"a", "c"},
			expErr:  "delivering to b",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			pub := &recordingPublisher{failFor: map[string]bool{}}
			for _, id := range tt.failFor {
				pub.failFor[Subject(id)] = true
			}
			f := NewFanout(pub, tt.open)

			err := f.Broadcast(context.Background(), tt.targets, map[string]string{"type": "ping"}, tt.exclude)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, id := range tt.expTo {
				testutil.AssertEqual(t, "messages to "+id, len(pub.published[Subject(id)]), 1)
				testutil.AssertEqual(t, "payload to "+id, pub.published[Subject(id)][0], `{"type":"ping"}`)
			}
			for _, id := range tt.expNotTo {
				testutil.AssertEqual(t, "messages to "+id, len(pub.published[Subject(id)]), 0)
			}
		})
	}
}

func TestFanout_MarshalError(t *testing.T) {
	f := NewFanout(&recordingPublisher{}, nil)

	err := f.Send(context.Background(), "a", func() {})
	testutil.AssertErrorContains(t, err, "marshaling event")
}
