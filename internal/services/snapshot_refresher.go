package services

import (
	"context"
	"sync"
	"time"

	"empire/internal/logger"
	"empire/internal/timeutil"
)

// WeekRebuilder recomputes the stored snapshots of one week.
type WeekRebuilder interface {
	RefreshWeek(ctx context.Context, userID string, anchor time.Time) error
}

type refreshJob struct {
	key    string
	userID string
	anchor time.Time
}

// SnapshotRefresher runs week refreshes in the background on a fixed pool of
// workers. Enqueue never blocks: a full queue drops the request, and a week
// that is already waiting is not queued twice.
type SnapshotRefresher struct {
	rebuilder WeekRebuilder
	cal       *timeutil.Calendar
	timeout   time.Duration

	queue chan refreshJob
	wg    sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

// NewSnapshotRefresher starts workers goroutines reading from a queue of
// queueSize. Each refresh runs with its own timeout.
func NewSnapshotRefresher(rebuilder WeekRebuilder, cal *timeutil.Calendar, workers, queueSize int, timeout time.Duration) *SnapshotRefresher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	r := &SnapshotRefresher{
		rebuilder: rebuilder,
		cal:       cal,
		timeout:   timeout,
		queue:     make(chan refreshJob, queueSize),
		pending:   make(map[string]struct{}),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}
	return r
}

// Enqueue schedules a refresh of the week containing date.
func (r *SnapshotRefresher) Enqueue(userID string, date time.Time) {
	job := refreshJob{
		key:    userID + "|" + r.cal.WeekID(date),
		userID: userID,
		anchor: date,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if _, ok := r.pending[job.key]; ok {
		return
	}
	select {
	case r.queue <- job:
		r.pending[job.key] = struct{}{}
	default:
		logger.Get().Warnw("Snapshot refresh queue full, dropping refresh",
			"user_id", userID,
			"week_id", r.cal.WeekID(date),
		)
	}
}

// Close stops accepting work, drains what is queued and waits for the
// workers to finish.
func (r *SnapshotRefresher) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *SnapshotRefresher) work() {
	defer r.wg.Done()
	for job := range r.queue {
		r.mu.Lock()
		delete(r.pending, job.key)
		r.mu.Unlock()

		r.run(job)
	}
}

func (r *SnapshotRefresher) run(job refreshJob) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := r.rebuilder.RefreshWeek(ctx, job.userID, job.anchor); err != nil {
		logger.Get().Errorw("Snapshot refresh failed",
			"user_id", job.userID,
			"week_id", r.cal.WeekID(job.anchor),
			"error", err,
		)
		return
	}
	logger.Get().Debugw("Snapshot week refreshed",
		"user_id", job.userID,
		"week_id", r.cal.WeekID(job.anchor),
		"duration", time.Since(start),
	)
}
