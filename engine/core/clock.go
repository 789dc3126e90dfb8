package core

import "time"

// Clock times load rounds. Each Start/Stop span is a lap; Total adds up
// every finished lap.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	elapsed   time.Duration
	total     time.Duration
	laps      int
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Starts a lap. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
}

// Stops the running lap and adds it to the total. Has no effect on a
// stopped clock.
func (c *Clock) Stop() {
	if !c.Running() {
		return
	}
	c.elapsed = c.now().Sub(c.startTime)
	c.startTime = time.Time{}
	c.total += c.elapsed
	c.laps++
}

func (c *Clock) Running() bool {
	return !c.startTime.IsZero()
}

// Elapsed is the length of the running lap, or of the last one once the
// clock is stopped.
func (c *Clock) Elapsed() time.Duration {
	if c.Running() {
		return c.now().Sub(c.startTime)
	}
	return c.elapsed
}

func (c *Clock) Total() time.Duration {
	return c.total
}

func (c *Clock) Laps() int {
	return c.laps
}
