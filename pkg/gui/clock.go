package gui

import (
	"fmt"
	"time"
)

// Clock accumulates the time a player spends thinking. It has no goroutine
// of its own; it is read from the UI goroutine.
type Clock struct {
	Elapsed time.Duration
	since   time.Time
	running bool
}

func (cl *Clock) String() string {
	return fmt.Sprintf("%d:%02d", int(cl.Elapsed.Minutes()), int(cl.Elapsed.Seconds())%60)
}

// Update adds the time since the last call while running.
func (cl *Clock) Update(now time.Time) {
	if cl.running {
		cl.Elapsed += now.Sub(cl.since)
		cl.since = now
	}
}

func (cl *Clock) Start(now time.Time) {
	if !cl.running {
		cl.running = true
		cl.since = now
	}
}

func (cl *Clock) Pause(now time.Time) {
	cl.Update(now)
	cl.running = false
}

func (cl *Clock) Reset() {
	cl.Elapsed = 0
	cl.running = false
}
