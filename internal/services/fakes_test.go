package services

import (
	"sync"
	"time"

	"empire/internal/timeutil"
)

type refreshCall struct {
	userID string
	date   time.Time
}

// recordingRefresher captures enqueued refreshes instead of running them.
type recordingRefresher struct {
	mu    sync.Mutex
	calls []refreshCall
}

func (r *recordingRefresher) Enqueue(userID string, date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, refreshCall{userID: userID, date: date})
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingRefresher) last() refreshCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

// fakeClock is a settable clock for calendars under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func utcCalendar(clock *fakeClock) *timeutil.Calendar {
	return timeutil.NewWithClock(time.UTC, clock.Now)
}
