// Package scheduler runs the calendar-driven maintenance jobs: snapshot
// capture, weekly workout archival and trash purging. Every job can also be
// invoked directly through Run with the same semantics.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"empire/internal/logger"
	"empire/internal/models"
	"empire/internal/timeutil"
)

// Job names accepted by Run.
const (
	JobDailySnapshots    = "daily-snapshots"
	JobEndOfDaySnapshots = "end-of-day-snapshots"
	JobArchiveWorkouts   = "archive-workouts"
	JobPurgeTrash        = "purge-trash"
)

// Cron specs, evaluated in the calendar's location.
const (
	specDailySnapshots    = "0 0 * * *"
	specEndOfDaySnapshots = "59 23 * * *"
	specArchiveWorkouts   = "0 0 * * 0"
	specPurgeTrash        = "30 0 * * *"
)

// ErrUnknownJob is returned by Run for an unrecognized job name.
var ErrUnknownJob = errors.New("unknown job")

type UserLister interface {
	ListUserIDs() ([]string, error)
}

type SnapshotComputer interface {
	ComputeSnapshot(ctx context.Context, userID string, date time.Time) (*models.DailySnapshot, error)
}

type WeekArchiver interface {
	ArchiveEndedWeek(ctx context.Context, userID string, now time.Time) (bool, error)
}

type TrashPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// JobResult summarizes one job run. Processed counts users (or items, for
// the purge) the job changed; a failure for one user never stops the others.
type JobResult struct {
	Job        string        `json:"job"`
	Users      int           `json:"users"`
	Processed  int           `json:"processed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	Users       UserLister
	Snapshots   SnapshotComputer
	Archiver    WeekArchiver
	Purger      TrashPurger
	Calendar    *timeutil.Calendar
	Concurrency int
}

type Scheduler struct {
	deps Deps
	log  *zap.SugaredLogger
	cron *cron.Cron
}

// New creates a Scheduler. Concurrency bounds how many users a job works on
// at once.
func New(deps Deps) *Scheduler {
	if deps.Concurrency < 1 {
		deps.Concurrency = 1
	}
	return &Scheduler{deps: deps, log: logger.Get()}
}

// Run executes job as of now.
func (s *Scheduler) Run(ctx context.Context, job string, now time.Time) (*JobResult, error) {
	switch job {
	case JobDailySnapshots:
		return s.RunDailySnapshots(ctx, now)
	case JobEndOfDaySnapshots:
		return s.RunEndOfDaySnapshots(ctx, now)
	case JobArchiveWorkouts:
		return s.RunWeeklyArchive(ctx, now)
	case JobPurgeTrash:
		return s.RunTrashPurge(ctx, now)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
}

// RunDailySnapshots recomputes the day before now for every user, once that
// day can no longer change.
func (s *Scheduler) RunDailySnapshots(ctx context.Context, now time.Time) (*JobResult, error) {
	yesterday := s.deps.Calendar.StartOfDay(now).AddDate(0, 0, -1)
	return s.forEachUser(ctx, JobDailySnapshots, func(ctx context.Context, userID string) (bool, error) {
		_, err := s.deps.Snapshots.ComputeSnapshot(ctx, userID, yesterday)
		return err == nil, err
	})
}

// RunEndOfDaySnapshots captures today's snapshot for every user.
func (s *Scheduler) RunEndOfDaySnapshots(ctx context.Context, now time.Time) (*JobResult, error) {
	today := s.deps.Calendar.StartOfDay(now)
	return s.forEachUser(ctx, JobEndOfDaySnapshots, func(ctx context.Context, userID string) (bool, error) {
		_, err := s.deps.Snapshots.ComputeSnapshot(ctx, userID, today)
		return err == nil, err
	})
}

// RunWeeklyArchive archives every user's just-ended week. Weeks already
// archived are skipped and not counted as processed.
func (s *Scheduler) RunWeeklyArchive(ctx context.Context, now time.Time) (*JobResult, error) {
	return s.forEachUser(ctx, JobArchiveWorkouts, func(ctx context.Context, userID string) (bool, error) {
		return s.deps.Archiver.ArchiveEndedWeek(ctx, userID, now)
	})
}

// RunTrashPurge deletes expired trash items of all users.
func (s *Scheduler) RunTrashPurge(ctx context.Context, now time.Time) (*JobResult, error) {
	start := time.Now()
	n, err := s.deps.Purger.PurgeExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	return finish(&JobResult{Job: JobPurgeTrash, Processed: int(n)}, start), nil
}

func (s *Scheduler) forEachUser(ctx context.Context, job string, fn func(context.Context, string) (bool, error)) (*JobResult, error) {
	start := time.Now()
	ids, err := s.deps.Users.ListUserIDs()
	if err != nil {
		return nil, err
	}

	var processed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.deps.Concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			changed, err := fn(ctx, id)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.Errorw("Scheduled job failed for user",
					"job", job,
					"user_id", id,
					"error", err,
				)
			case changed:
				processed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return finish(&JobResult{
		Job:       job,
		Users:     len(ids),
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
	}, start), ctx.Err()
}

func finish(r *JobResult, start time.Time) *JobResult {
	r.Duration = time.Since(start)
	r.DurationMS = r.Duration.Milliseconds()
	return r
}

// Start registers the calendar triggers and starts the cron runner.
func (s *Scheduler) Start() error {
	l := cronLogger{s.log}
	c := cron.New(
		cron.WithLocation(s.deps.Calendar.Location()),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	for spec, job := range map[string]string{
		specDailySnapshots:    JobDailySnapshots,
		specEndOfDaySnapshots: JobEndOfDaySnapshots,
		specArchiveWorkouts:   JobArchiveWorkouts,
		specPurgeTrash:        JobPurgeTrash,
	} {
		if _, err := c.AddFunc(spec, s.trigger(job)); err != nil {
			return fmt.Errorf("schedule %s: %w", job, err)
		}
	}

	s.cron = c
	c.Start()
	s.log.Infow("Scheduler started", "location", s.deps.Calendar.Location().String())
	return nil
}

// Stop stops the cron runner and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warnw("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) trigger(job string) func() {
	return func() {
		res, err := s.Run(context.Background(), job, s.deps.Calendar.Now())
		if err != nil {
			s.log.Errorw("Scheduled job failed", "job", job, "error", err)
			return
		}
		s.log.Infow("Scheduled job finished",
			"job", res.Job,
			"users", res.Users,
			"processed", res.Processed,
			"failed", res.Failed,
			"duration", res.Duration,
		)
	}
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
