package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/scheduler"
	"empire/internal/timeutil"
)

// JobRunner executes a named background job on demand.
type JobRunner interface {
	Run(ctx context.Context, job string, now time.Time) (*scheduler.JobResult, error)
}

// JobsHandler exposes the scheduler's jobs to operators.
type JobsHandler struct {
	runner JobRunner
	cal    *timeutil.Calendar
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(runner JobRunner, cal *timeutil.Calendar) *JobsHandler {
	return &JobsHandler{runner: runner, cal: cal}
}

// JobRequest optionally pins the day a job works on.
type JobRequest struct {
	Date string `json:"date"`
}

// RunJob triggers one job
// @Summary     Run a background job
// @Description daily-snapshots recomputes the given date (default yesterday); the other jobs run as of the given date (default now).
// @Tags        jobs
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       job     path string     true  "daily-snapshots, end-of-day-snapshots, archive-workouts or purge-trash"
// @Param       request body JobRequest false "Date (YYYY-MM-DD)"
// @Success     200 {object} scheduler.JobResult "Result"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Unknown job"
// @Failure     503 {object} ErrorResponse "Ops endpoints disabled"
// @Router      /jobs/{job} [post]
func (h *JobsHandler) RunJob(c *gin.Context) {
	job := c.Param("job")

	var req JobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	now := h.cal.Now()
	if req.Date != "" {
		date, err := h.cal.ParseDate(req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		now = date
		if job == scheduler.JobDailySnapshots {
			// the job computes the day before now
			now = date.AddDate(0, 0, 1)
		}
	}

	result, err := h.runner.Run(c.Request.Context(), job, now)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			err = apperrors.WithMessage(apperrors.ErrNotFound, "Unknown job "+job)
		}
		respondWithError(c, err)
		return
	}
	respondOK(c, result)
}
