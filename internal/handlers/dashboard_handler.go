package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/pagination"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// DefaultBackfillDays is used when a backfill request names no day count.
const DefaultBackfillDays = 30

// DashboardHandler serves the dashboard views and snapshot maintenance.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	snapshotService  services.SnapshotServicer
	cal              *timeutil.Calendar
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer, snapshotService services.SnapshotServicer, cal *timeutil.Calendar) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, snapshotService: snapshotService, cal: cal}
}

// SnapshotRequest selects the day to recompute. Empty means today.
type SnapshotRequest struct {
	Date string `json:"date"`
}

// BackfillRequest selects how many days, today included, to recompute.
type BackfillRequest struct {
	Days int `json:"days" binding:"omitempty,min=1,max=366"`
}

// BackfillResponse reports how many snapshots were written.
type BackfillResponse struct {
	Days     int `json:"days"`
	Computed int `json:"computed"`
}

type historyQuery struct {
	pagination.PageRequest
	From string `form:"from"`
	To   string `form:"to"`
}

// GetStats returns the current-week rollup
// @Summary     Dashboard statistics
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardStats "Current week"
// @Router      /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	stats, err := h.dashboardService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, stats)
}

// GetWeekly returns seven days of metrics
// @Summary     Weekly chart
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       week_start query string false "Any day of the wanted week (YYYY-MM-DD); defaults to the current week"
// @Success     200 {array}  services.DayMetrics "Sunday through Saturday"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Router      /dashboard/weekly [get]
func (h *DashboardHandler) GetWeekly(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var weekStart *time.Time
	if s := c.Query("week_start"); s != "" {
		d, err := h.cal.ParseDate(s)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		weekStart = &d
	}
	days, err := h.dashboardService.GetWeekly(c.Request.Context(), userID, weekStart)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, days)
}

// GetDay returns everything recorded on one day
// @Summary     Day detail
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       date path string true "Day (YYYY-MM-DD)"
// @Success     200 {object} services.DayActivities "Activities"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Router      /dashboard/day/{date} [get]
func (h *DashboardHandler) GetDay(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := h.cal.ParseDate(c.Param("date"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	day, err := h.dashboardService.GetDay(c.Request.Context(), userID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, day)
}

// GetHistory pages through stored snapshots
// @Summary     Snapshot history
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       from      query string false "First day (YYYY-MM-DD or RFC3339)"
// @Param       to        query string false "Last day (YYYY-MM-DD or RFC3339)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.DailySnapshot] "Snapshots, newest first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /dashboard/history [get]
func (h *DashboardHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q historyQuery
	if !bindQuery(c, &q) {
		return
	}
	from, err := h.optionalTime(q.From)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := h.optionalTime(q.To)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.snapshotService.GetHistory(userID, from, to, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, result)
}

// ComputeSnapshot recomputes one day's snapshot
// @Summary     Recompute a snapshot
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SnapshotRequest false "Day; defaults to today"
// @Success     200 {object} models.DailySnapshot "Stored snapshot"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Router      /dashboard/snapshot [post]
func (h *DashboardHandler) ComputeSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req SnapshotRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	date := h.cal.Today()
	if req.Date != "" {
		if date, err = h.cal.ParseFlexible(req.Date); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	snap, err := h.snapshotService.ComputeSnapshot(c.Request.Context(), userID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, snap)
}

// Backfill recomputes the last N days
// @Summary     Backfill snapshots
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BackfillRequest false "Day count; defaults to 30"
// @Success     200 {object} BackfillResponse "Result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /dashboard/backfill [post]
func (h *DashboardHandler) Backfill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req BackfillRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.Days == 0 {
		req.Days = DefaultBackfillDays
	}

	computed, err := h.snapshotService.Backfill(c.Request.Context(), userID, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, BackfillResponse{Days: req.Days, Computed: computed})
}

func (h *DashboardHandler) optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := h.cal.ParseFlexible(s)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return &t, nil
}
