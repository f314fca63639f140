package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRebuilder blocks every refresh until release is closed and reports
// each start on started.
type gatedRebuilder struct {
	started chan string
	release chan struct{}
	err     error

	mu    sync.Mutex
	calls []string
}

func newGatedRebuilder(open bool) *gatedRebuilder {
	g := &gatedRebuilder{started: make(chan string, 64), release: make(chan struct{})}
	if open {
		close(g.release)
	}
	return g
}

func (g *gatedRebuilder) RefreshWeek(ctx context.Context, userID string, anchor time.Time) error {
	g.started <- userID
	<-g.release
	g.mu.Lock()
	g.calls = append(g.calls, userID)
	g.mu.Unlock()
	return g.err
}

func (g *gatedRebuilder) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitStarted(t *testing.T, g *gatedRebuilder, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh for %s never started", want)
	}
}

func TestSnapshotRefresher_CoalescesPendingWeek(t *testing.T) {
	g := newGatedRebuilder(false)
	r := NewSnapshotRefresher(g, utcCalendar(newFakeClock(wednesday)), 1, 8, time.Second)

	r.Enqueue("alice", wednesday)
	waitStarted(t, g, "alice")

	// Same week three times while the first refresh is still running.
	r.Enqueue("alice", day(10))
	r.Enqueue("alice", day(11))
	r.Enqueue("alice", day(16))
	// A different week is its own entry.
	r.Enqueue("alice", day(17))

	close(g.release)
	r.Close()

	assert.Equal(t, 3, g.callCount())
}

func TestSnapshotRefresher_DropsWhenFull(t *testing.T) {
	g := newGatedRebuilder(false)
	r := NewSnapshotRefresher(g, utcCalendar(newFakeClock(wednesday)), 1, 1, time.Second)

	r.Enqueue("alice", wednesday)
	waitStarted(t, g, "alice")

	done := make(chan struct{})
	go func() {
		r.Enqueue("bob", wednesday)
		r.Enqueue("carol", wednesday)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(g.release)
	r.Close()

	assert.Equal(t, 2, g.callCount(), "carol's refresh should have been dropped")
}

func TestSnapshotRefresher_CloseDrainsQueue(t *testing.T) {
	g := newGatedRebuilder(true)
	g.err = errors.New("store unavailable")
	r := NewSnapshotRefresher(g, utcCalendar(newFakeClock(wednesday)), 2, 16, time.Second)

	for _, user := range []string{"a", "b", "c", "d"} {
		r.Enqueue(user, wednesday)
	}
	r.Close()
	assert.Equal(t, 4, g.callCount(), "failures are logged, not retried or lost")

	r.Enqueue("e", wednesday)
	r.Close()
	assert.Equal(t, 4, g.callCount(), "enqueue after close is ignored")
}
