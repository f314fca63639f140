package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// GoalHandler handles goal and task requests.
type GoalHandler struct {
	goalService  services.GoalServicer
	auditService services.AuditServicer
	cal          *timeutil.Calendar
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer, auditService services.AuditServicer, cal *timeutil.Calendar) *GoalHandler {
	return &GoalHandler{goalService: goalService, auditService: auditService, cal: cal}
}

// TaskRequest is one task of a goal. ID is kept when it names an existing task.
type TaskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title" binding:"max=200"`
	Completed bool   `json:"completed"`
}

// GoalRequest is the payload for creating or replacing a goal.
type GoalRequest struct {
	Title      string        `json:"title" binding:"required,min=3,max=200"`
	Tasks      []TaskRequest `json:"tasks" binding:"required,min=1,dive"`
	TargetDate *string       `json:"target_date"`
}

type goalQuery struct {
	Completed *bool  `form:"completed"`
	TimeRange string `form:"time_range" binding:"omitempty,time_range"`
}

// GetGoals lists the user's goals
// @Summary     List goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       completed  query bool   false "Filter by completion"
// @Param       time_range query string false "Created or completed since the start of the range"
// @Success     200 {array}  models.Goal "Goals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /goals [get]
func (h *GoalHandler) GetGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q goalQuery
	if !bindQuery(c, &q) {
		return
	}

	goals, err := h.goalService.GetUserGoals(userID, h.filter(q))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, goals)
}

// GetStats summarizes goals and tasks
// @Summary     Goal statistics
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       time_range query string false "Created or completed since the start of the range"
// @Success     200 {object} services.GoalStats "Statistics"
// @Router      /goals/stats [get]
func (h *GoalHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q goalQuery
	if !bindQuery(c, &q) {
		return
	}

	stats, err := h.goalService.GetStats(userID, h.filter(q))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, stats)
}

// GetGoal returns a single goal
// @Summary     Get a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.Goal "Goal"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, goal)
}

// CreateGoal creates a goal with its tasks
// @Summary     Create a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body GoalRequest true "Goal"
// @Success     201 {object} models.Goal "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req GoalRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := h.input(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.CreateGoal(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GOAL", "goal", goal.ID, c.ClientIP(), nil)
	respondCreated(c, goal, "Goal created successfully")
}

// UpdateGoal replaces a goal's title, tasks and target date
// @Summary     Update a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "Goal ID"
// @Param       request body GoalRequest true "Goal"
// @Success     200 {object} models.Goal "Updated goal"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req GoalRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := h.input(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.UpdateGoal(userID, id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GOAL", "goal", id, c.ClientIP(), nil)
	respondOK(c, goal)
}

// ToggleTask flips one task's completion
// @Summary     Toggle a task
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id     path string true "Goal ID"
// @Param       taskId path string true "Task ID"
// @Success     200 {object} models.Goal "Goal with recomputed completion"
// @Failure     404 {object} ErrorResponse "Goal or task not found"
// @Router      /goals/{id}/tasks/{taskId} [patch]
func (h *GoalHandler) ToggleTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.ToggleTask(userID, id, c.Param("taskId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, goal)
}

// DeleteGoal permanently removes a goal
// @Summary     Delete a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GOAL", "goal", id, c.ClientIP(), nil)
	respondMessage(c, "Goal deleted successfully")
}

func (h *GoalHandler) filter(q goalQuery) services.GoalFilter {
	f := services.GoalFilter{Completed: q.Completed}
	if since, ok := h.cal.RangeStart(q.TimeRange); ok {
		f.Since = &since
	}
	return f
}

func (h *GoalHandler) input(req GoalRequest) (services.GoalInput, error) {
	in := services.GoalInput{Title: req.Title}
	for _, t := range req.Tasks {
		in.Tasks = append(in.Tasks, services.TaskInput{ID: t.ID, Title: t.Title, Completed: t.Completed})
	}
	if req.TargetDate != nil && *req.TargetDate != "" {
		target, err := h.cal.ParseFlexible(*req.TargetDate)
		if err != nil {
			return services.GoalInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		in.TargetDate = timePtr(target)
	}
	return in, nil
}

func timePtr(t time.Time) *time.Time { return &t }
