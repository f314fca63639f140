package services

import (
	"math"
	"strings"

	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/timeutil"
	"empire/internal/uuid"
)

type goalService struct {
	db        *gorm.DB
	cal       *timeutil.Calendar
	refresher WeekRefresher
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, cal *timeutil.Calendar, refresher WeekRefresher) GoalServicer {
	return &goalService{db: db, cal: cal, refresher: refresher}
}

func (s *goalService) scoped(userID string, filter GoalFilter) *gorm.DB {
	q := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)
	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}
	if filter.Since != nil {
		since := filter.Since.UTC()
		q = q.Where("created_at >= ? OR completed_at >= ?", since, since)
	}
	return q
}

// GetUserGoals lists the user's goals, newest first.
func (s *goalService) GetUserGoals(userID string, filter GoalFilter) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.scoped(userID, filter).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, internal(err)
	}
	return goals, nil
}

// GetGoalByID retrieves a goal owned by the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.Goal, error) {
	return findOwned[models.Goal](s.db, userID, goalID, apperrors.ErrGoalNotFound)
}

// CreateGoal stores a new goal. Blank tasks are dropped and at least one
// task must remain.
func (s *goalService) CreateGoal(userID string, in GoalInput) (*models.Goal, error) {
	title, err := goalTitle(in.Title)
	if err != nil {
		return nil, err
	}
	now := s.cal.Now()

	goal := &models.Goal{
		UserID:     userID,
		Title:      title,
		Tasks:      buildTasks(nil, in.Tasks),
		TargetDate: utcPtr(in.TargetDate),
	}
	if len(goal.Tasks) == 0 {
		return nil, apperrors.ErrGoalNoTasks
	}
	goal.EnsureTaskIDs(now)
	goal.RecomputeCompletion(now)

	if err := s.db.Create(goal).Error; err != nil {
		return nil, internal(err)
	}
	enqueue(s.refresher, userID, now)
	return goal, nil
}

// UpdateGoal replaces title, tasks and target date. Tasks whose id matches an
// existing task keep that id and its completion time.
func (s *goalService) UpdateGoal(userID, goalID string, in GoalInput) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	title, err := goalTitle(in.Title)
	if err != nil {
		return nil, err
	}

	tasks := buildTasks(goal.Tasks, in.Tasks)
	if len(tasks) == 0 {
		return nil, apperrors.ErrGoalNoTasks
	}

	now := s.cal.Now()
	previouslyCompleted := goal.CompletedAt

	goal.Title = title
	goal.Tasks = tasks
	goal.TargetDate = utcPtr(in.TargetDate)
	goal.EnsureTaskIDs(now)
	goal.RecomputeCompletion(now)

	if err := s.db.Save(goal).Error; err != nil {
		return nil, internal(err)
	}

	enqueue(s.refresher, userID, now)
	if previouslyCompleted != nil && goal.CompletedAt == nil {
		enqueue(s.refresher, userID, *previouslyCompleted)
	}
	return goal, nil
}

// ToggleTask flips one task and recomputes the goal's completion.
func (s *goalService) ToggleTask(userID, goalID, taskID string) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.cal.Now()
	previouslyCompleted := goal.CompletedAt
	if !goal.ToggleTask(taskID, now) {
		return nil, apperrors.ErrTaskNotFound
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, internal(err)
	}

	enqueue(s.refresher, userID, now)
	if previouslyCompleted != nil && goal.CompletedAt == nil {
		enqueue(s.refresher, userID, *previouslyCompleted)
	}
	return goal, nil
}

// DeleteGoal permanently removes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return internal(err)
	}
	enqueue(s.refresher, userID, s.cal.Now())
	if goal.CompletedAt != nil {
		enqueue(s.refresher, userID, *goal.CompletedAt)
	}
	return nil
}

// GetStats summarizes the filtered goals and their tasks.
func (s *goalService) GetStats(userID string, filter GoalFilter) (*GoalStats, error) {
	goals, err := s.GetUserGoals(userID, filter)
	if err != nil {
		return nil, err
	}

	stats := &GoalStats{TotalGoals: len(goals)}
	for i := range goals {
		if goals[i].Completed {
			stats.CompletedGoals++
		}
		done, total := goals[i].TaskCounts()
		stats.CompletedTasks += done
		stats.TotalTasks += total
	}
	stats.ActiveGoals = stats.TotalGoals - stats.CompletedGoals
	stats.CompletionRate = percent(stats.CompletedGoals, stats.TotalGoals)
	stats.TaskCompletionRate = percent(stats.CompletedTasks, stats.TotalTasks)
	return stats, nil
}

func goalTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < 3 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "title must be at least 3 characters")
	}
	return title, nil
}

// buildTasks turns client input into tasks, reusing ids found in existing.
func buildTasks(existing []models.GoalTask, in []TaskInput) []models.GoalTask {
	known := make(map[string]models.GoalTask, len(existing))
	for _, t := range existing {
		known[t.ID] = t
	}

	tasks := make([]models.GoalTask, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		task := models.GoalTask{Title: title, Completed: t.Completed}
		if prev, ok := known[t.ID]; ok && !seen[t.ID] {
			task.ID = prev.ID
			if t.Completed && prev.Completed {
				task.CompletedAt = prev.CompletedAt
			}
		} else {
			task.ID = uuid.New()
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}
	return tasks
}

// percent returns part/whole as a percentage rounded to one decimal.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}
