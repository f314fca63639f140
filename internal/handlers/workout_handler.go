package handlers

import (
	"github.com/gin-gonic/gin"

	"empire/internal/models"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// WorkoutHandler handles the workout template and weekly plans.
type WorkoutHandler struct {
	workoutService services.WorkoutServicer
	auditService   services.AuditServicer
	cal            *timeutil.Calendar
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService services.WorkoutServicer, auditService services.AuditServicer, cal *timeutil.Calendar) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, auditService: auditService, cal: cal}
}

// TemplateRequest replaces the template's days.
type TemplateRequest struct {
	Days models.WeekDays `json:"days" binding:"required"`
}

// WeekRequest replaces one week's days.
type WeekRequest struct {
	WeekID string          `json:"week_id"`
	Days   models.WeekDays `json:"days" binding:"required"`
}

// ArchiveAllResponse reports whether the just-ended week was archived.
type ArchiveAllResponse struct {
	Archived bool `json:"archived"`
}

// GetTemplate returns the user's template
// @Summary     Get the workout template
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Workout "Template"
// @Router      /workouts/template [get]
func (h *WorkoutHandler) GetTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	template, err := h.workoutService.GetTemplate(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, template)
}

// UpdateTemplate replaces the template's days
// @Summary     Update the workout template
// @Tags        workouts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TemplateRequest true "Days"
// @Success     200 {object} models.Workout "Template"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /workouts/template [put]
func (h *WorkoutHandler) UpdateTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req TemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.workoutService.UpdateTemplate(userID, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "UPDATE_TEMPLATE", "workout", template.ID, c.ClientIP(), nil)
	respondOK(c, template)
}

// GetCurrent returns a week plan, creating it from the template if needed
// @Summary     Get a week plan
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Param       week_id query string false "Week id (the week's Sunday, YYYY-MM-DD); defaults to the current week"
// @Success     200 {object} models.Workout "Week"
// @Failure     400 {object} ErrorResponse "Invalid week id"
// @Router      /workouts/current [get]
func (h *WorkoutHandler) GetCurrent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	week, err := h.workoutService.GetWeek(userID, c.Query("week_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, week)
}

// UpdateCurrent replaces a week's days
// @Summary     Update a week plan
// @Tags        workouts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WeekRequest true "Week"
// @Success     200 {object} models.Workout "Week"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Week is archived"
// @Router      /workouts/current [put]
func (h *WorkoutHandler) UpdateCurrent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req WeekRequest
	if !bindJSON(c, &req) {
		return
	}
	week, err := h.workoutService.UpdateWeek(userID, req.WeekID, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, week)
}

// ToggleExercise flips one exercise's completion
// @Summary     Toggle an exercise
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Param       weekId     path string true "Week id"
// @Param       day        path string true "Weekday name"
// @Param       exerciseId path string true "Exercise ID"
// @Success     200 {object} models.Workout "Week"
// @Failure     404 {object} ErrorResponse "Week, day or exercise not found"
// @Failure     409 {object} ErrorResponse "Week is archived"
// @Router      /workouts/{weekId}/{day}/{exerciseId}/toggle [patch]
func (h *WorkoutHandler) ToggleExercise(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	week, err := h.workoutService.ToggleExercise(userID, c.Param("weekId"), c.Param("day"), c.Param("exerciseId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, week)
}

// ArchiveWeek closes a week
// @Summary     Archive a week
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Param       weekId path string true "Week id"
// @Success     200 {object} models.Workout "Archived week"
// @Failure     404 {object} ErrorResponse "Week not found"
// @Router      /workouts/{weekId}/archive [post]
func (h *WorkoutHandler) ArchiveWeek(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	weekID := c.Param("weekId")
	week, err := h.workoutService.ArchiveWeek(userID, weekID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "ARCHIVE_WORKOUT", "workout", week.ID, c.ClientIP(), map[string]interface{}{"week_id": weekID})
	respondOK(c, week)
}

// ArchiveAll archives the user's just-ended week
// @Summary     Archive the previous week
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ArchiveAllResponse "Result"
// @Router      /workouts/archive-all [post]
func (h *WorkoutHandler) ArchiveAll(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	archived, err := h.workoutService.ArchiveEndedWeek(c.Request.Context(), userID, h.cal.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, ArchiveAllResponse{Archived: archived})
}

// SyncWithTemplate re-applies the template to a week
// @Summary     Sync a week with the template
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Param       weekId path string true "Week id"
// @Success     200 {object} models.Workout "Week"
// @Failure     404 {object} ErrorResponse "Week not found"
// @Failure     409 {object} ErrorResponse "Week is archived"
// @Router      /workouts/{weekId}/sync [post]
func (h *WorkoutHandler) SyncWithTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	week, err := h.workoutService.SyncWithTemplate(userID, c.Param("weekId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, week)
}

// GetHistory lists archived weeks
// @Summary     Workout history
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Workout "Archived weeks, newest first"
// @Router      /workouts/history [get]
func (h *WorkoutHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	weeks, err := h.workoutService.GetHistory(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, weeks)
}

// DeleteWeek permanently removes a week
// @Summary     Delete a week
// @Tags        workouts
// @Produce     json
// @Security    BearerAuth
// @Param       weekId path string true "Week id"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid week id"
// @Failure     404 {object} ErrorResponse "Week not found"
// @Router      /workouts/{weekId} [delete]
func (h *WorkoutHandler) DeleteWeek(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	weekID := c.Param("weekId")
	if err := h.workoutService.DeleteWeek(userID, weekID); err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "DELETE_WORKOUT", "workout", weekID, c.ClientIP(), nil)
	respondMessage(c, "Workout deleted successfully")
}
