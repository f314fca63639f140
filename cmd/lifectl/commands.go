package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"empire/internal/scheduler"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// jobRunner is satisfied by *scheduler.Scheduler.
type jobRunner interface {
	Run(ctx context.Context, job string, now time.Time) (*scheduler.JobResult, error)
}

// Context carries the collaborators every command runs against.
type Context struct {
	Ctx       context.Context
	Snapshots services.SnapshotServicer
	Jobs      jobRunner
	Calendar  *timeutil.Calendar
	Out       io.Writer
}

func (c *Context) print(v interface{}) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// day resolves "today" or a YYYY-MM-DD date in the calendar's location.
func (c *Context) day(s string) (time.Time, error) {
	if s == "" || s == "today" {
		return c.Calendar.Today(), nil
	}
	d, err := c.Calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or 'today'", s)
	}
	return d, nil
}

type SnapshotCmd struct {
	User string `help:"User id." required:""`
	Date string `help:"Day to compute (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *SnapshotCmd) Run(ctx *Context) error {
	date, err := ctx.day(c.Date)
	if err != nil {
		return err
	}
	snap, err := ctx.Snapshots.ComputeSnapshot(ctx.Ctx, c.User, date)
	if err != nil {
		return fmt.Errorf("compute snapshot: %w", err)
	}
	return ctx.print(snap)
}

type BackfillCmd struct {
	User string `help:"User id." required:""`
	Days int    `help:"Number of days ending today." default:"30"`
}

func (c *BackfillCmd) Run(ctx *Context) error {
	if c.Days < 1 || c.Days > 366 {
		return fmt.Errorf("days must be between 1 and 366, got %d", c.Days)
	}
	n, err := ctx.Snapshots.Backfill(ctx.Ctx, c.User, c.Days)
	if err != nil {
		return fmt.Errorf("backfill stopped after %d of %d days: %w", n, c.Days, err)
	}
	return ctx.print(map[string]int{"days": c.Days, "computed": n})
}

// jobNames maps the short CLI names onto scheduler jobs.
var jobNames = map[string]string{
	"daily":       scheduler.JobDailySnapshots,
	"end-of-day":  scheduler.JobEndOfDaySnapshots,
	"archive":     scheduler.JobArchiveWorkouts,
	"purge-trash": scheduler.JobPurgeTrash,
}

type JobCmd struct {
	Name string `arg:"" enum:"daily,end-of-day,archive,purge-trash" help:"Job to run: daily, end-of-day, archive or purge-trash."`
	Date string `help:"Run as of this day (YYYY-MM-DD). For daily, the day to recompute."`
}

func (c *JobCmd) Run(ctx *Context) error {
	job, ok := jobNames[c.Name]
	if !ok {
		return fmt.Errorf("unknown job %q", c.Name)
	}

	now := ctx.Calendar.Now()
	if c.Date != "" {
		date, err := ctx.day(c.Date)
		if err != nil {
			return err
		}
		now = date
		if job == scheduler.JobDailySnapshots {
			// daily recomputes the day before "now".
			now = date.AddDate(0, 0, 1)
		}
	}

	res, err := ctx.Jobs.Run(ctx.Ctx, job, now)
	if err != nil {
		return fmt.Errorf("run %s: %w", job, err)
	}
	return ctx.print(res)
}
