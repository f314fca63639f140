package models

import (
	"time"

	"empire/internal/uuid"
)

// GoalTask is a task embedded in a goal, addressed by a stable id.
type GoalTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Goal owns an ordered task list. Completed and CompletedAt are derived from
// the tasks by RecomputeCompletion and never set directly.
type Goal struct {
	Base
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string     `gorm:"not null" json:"title"`
	Tasks       []GoalTask `gorm:"type:jsonb;serializer:json;not null" json:"tasks"`
	Completed   bool       `gorm:"not null;default:false;index" json:"completed"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at"`
	TargetDate  *time.Time `json:"target_date"`
}

func (g *Goal) OwnerID() string { return g.UserID }

// RecomputeCompletion derives Completed from the tasks. CompletedAt is set to
// now only on a false to true transition and cleared whenever the goal is not
// complete.
func (g *Goal) RecomputeCompletion(now time.Time) {
	done := len(g.Tasks) > 0
	for _, t := range g.Tasks {
		if !t.Completed {
			done = false
			break
		}
	}

	switch {
	case done && (!g.Completed || g.CompletedAt == nil):
		ts := now.UTC()
		g.CompletedAt = &ts
	case !done:
		g.CompletedAt = nil
	}
	g.Completed = done
}

// ToggleTask flips one task's completion and recomputes the goal. It reports
// false when no task has the given id.
func (g *Goal) ToggleTask(taskID string, now time.Time) bool {
	for i := range g.Tasks {
		t := &g.Tasks[i]
		if t.ID != taskID {
			continue
		}
		t.Completed = !t.Completed
		if t.Completed {
			ts := now.UTC()
			t.CompletedAt = &ts
		} else {
			t.CompletedAt = nil
		}
		g.RecomputeCompletion(now)
		return true
	}
	return false
}

// TaskCounts returns completed and total task counts.
func (g *Goal) TaskCounts() (completed, total int) {
	for _, t := range g.Tasks {
		if t.Completed {
			completed++
		}
	}
	return completed, len(g.Tasks)
}

// EnsureTaskIDs assigns ids to tasks that arrived without one and keeps task
// timestamps consistent with their flags.
func (g *Goal) EnsureTaskIDs(now time.Time) {
	for i := range g.Tasks {
		t := &g.Tasks[i]
		if t.ID == "" {
			t.ID = uuid.New()
		}
		switch {
		case t.Completed && t.CompletedAt == nil:
			ts := now.UTC()
			t.CompletedAt = &ts
		case !t.Completed:
			t.CompletedAt = nil
		}
	}
}
