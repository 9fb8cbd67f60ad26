package runtime

import "time"

// Timer is a scheduled callback token. Stop cancels it if it has not fired yet.
type Timer interface {
	Stop() bool
}

// Scheduler is the single delayed-callback mechanism used for staged transitions.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules callbacks on the Go runtime timers.
type SystemScheduler struct{}

// AfterFunc implements Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
