package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"empire/internal/scheduler"
)

type mockJobRunner struct {
	runFn func(ctx context.Context, job string, now time.Time) (*scheduler.JobResult, error)
}

func (m *mockJobRunner) Run(ctx context.Context, job string, now time.Time) (*scheduler.JobResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx, job, now)
	}
	return &scheduler.JobResult{Job: job}, nil
}

func setupJobsRouter(handler *JobsHandler) *gin.Engine {
	r := gin.New()
	r.POST("/jobs/:job", handler.RunJob)
	return r
}

func TestJobsHandler_RunJob(t *testing.T) {
	t.Run("returns the job result", func(t *testing.T) {
		var gotNow time.Time
		runner := &mockJobRunner{
			runFn: func(_ context.Context, job string, now time.Time) (*scheduler.JobResult, error) {
				gotNow = now
				return &scheduler.JobResult{Job: job, Users: 3, Processed: 2, Failed: 1, DurationMS: 12}, nil
			},
		}
		r := setupJobsRouter(NewJobsHandler(runner, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/jobs/end-of-day-snapshots", "")
		assertStatus(t, rec, http.StatusOK)

		if !gotNow.Equal(wednesday) {
			t.Errorf("expected calendar now, got %v", gotNow)
		}
		data := dataOf(t, parseJSON(t, rec))
		if data["job"] != "end-of-day-snapshots" || data["failed"] != float64(1) || data["duration_ms"] != float64(12) {
			t.Errorf("unexpected result %v", data)
		}
	})

	t.Run("daily snapshots target the given date", func(t *testing.T) {
		var gotNow time.Time
		runner := &mockJobRunner{
			runFn: func(_ context.Context, job string, now time.Time) (*scheduler.JobResult, error) {
				gotNow = now
				return &scheduler.JobResult{Job: job}, nil
			},
		}
		r := setupJobsRouter(NewJobsHandler(runner, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/jobs/daily-snapshots", `{"date":"2024-03-01"}`)
		assertStatus(t, rec, http.StatusOK)
		if want := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC); !gotNow.Equal(want) {
			t.Errorf("expected run as of %v, got %v", want, gotNow)
		}
	})

	t.Run("returns 404 for an unknown job", func(t *testing.T) {
		runner := &mockJobRunner{
			runFn: func(_ context.Context, job string, _ time.Time) (*scheduler.JobResult, error) {
				return nil, fmt.Errorf("%w: %q", scheduler.ErrUnknownJob, job)
			},
		}
		r := setupJobsRouter(NewJobsHandler(runner, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/jobs/reindex", "")
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "NOT_FOUND")
	})

	t.Run("returns 500 when the job fails", func(t *testing.T) {
		runner := &mockJobRunner{
			runFn: func(context.Context, string, time.Time) (*scheduler.JobResult, error) {
				return nil, errors.New("connection refused")
			},
		}
		r := setupJobsRouter(NewJobsHandler(runner, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/jobs/purge-trash", "")
		assertStatus(t, rec, http.StatusInternalServerError)
	})
}
