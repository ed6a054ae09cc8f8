package driver

import "time"

type DriverOpt func(*Driver)

// WithTask schedules t every interval under name.
func WithTask(name string, every time.Duration, t Task) DriverOpt {
	return func(d *Driver) {
		if every <= 0 {
			every = DefaultInterval
		}
		d.schedules = append(d.schedules, schedule{name: name, every: every, task: t})
	}
}
