package selector

import "time"

// Timer is a cancellable delayed task.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed tasks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
