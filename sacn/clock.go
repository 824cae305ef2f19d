package sacn

import "time"

// Clock is the monotonic millisecond clock the tracker and façades consume
// (spec.md §6). It wraps after ~49.7 days; all comparisons against it must
// go through elapsedSince to stay wrap-safe.
type Clock interface {
	NowMS() uint32
}

// RealClock implements Clock against the process's monotonic time.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a Clock anchored to the current instant.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// NowMS returns milliseconds elapsed since the clock was created, truncated
// to uint32 the way the embedded millis() counter this spec targets would.
func (c *RealClock) NowMS() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// elapsedSince returns now-then as a signed difference, safe across a
// uint32 wraparound: spec.md §9 requires every timeout check be coded as
// (int32)(now-then) rather than (now > then+timeout).
func elapsedSince(now, then uint32) int32 {
	return int32(now - then)
}
