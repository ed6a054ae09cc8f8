package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pixil98/go-errors"
)

// DefaultInterval is used for tasks registered without a positive interval.
const DefaultInterval = 30 * time.Second

// Task is periodic work run by the driver.
type Task interface {
	Tick(context.Context) error
}

type schedule struct {
	name  string
	every time.Duration
	task  Task
}

// Driver runs each registered task on its own interval until the context
// ends. A failing tick is logged and the task runs again on its next
// interval; one task never delays another.
type Driver struct {
	schedules []schedule
}

func NewDriver(opts ...DriverOpt) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, s := range d.schedules {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.run(ctx, s)
		}()
	}

	slog.InfoContext(ctx, "driver started", "tasks", len(d.schedules))
	<-ctx.Done()
	wg.Wait()
	return nil
}

func (d *Driver) run(ctx context.Context, s schedule) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.task.Tick(ctx); err != nil {
			failures++
			slog.ErrorContext(ctx, "task tick failed", "task", s.name, "failures", failures, "error", err)
			continue
		}
		if failures > 0 {
			slog.InfoContext(ctx, "task recovered", "task", s.name, "after", failures)
			failures = 0
		}
	}
}

// RunOnce ticks every task once in registration order and returns all of
// their errors together.
func (d *Driver) RunOnce(ctx context.Context) error {
	el := errors.NewErrorList()
	for _, s := range d.schedules {
		if err := s.task.Tick(ctx); err != nil {
			el.Add(fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return el.Err()
}
