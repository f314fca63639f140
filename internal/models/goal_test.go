package models

import (
	"testing"
	"time"
)

func newGoal(completed ...bool) *Goal {
	g := &Goal{Title: "Ship it"}
	for i, c := range completed {
		g.Tasks = append(g.Tasks, GoalTask{ID: string(rune('a' + i)), Title: "task", Completed: c})
	}
	g.EnsureTaskIDs(time.Now())
	g.RecomputeCompletion(time.Now())
	return g
}

func assertGoalConsistent(t *testing.T, g *Goal) {
	t.Helper()
	all := len(g.Tasks) > 0
	for _, task := range g.Tasks {
		all = all && task.Completed
		if task.Completed != (task.CompletedAt != nil) {
			t.Errorf("task %s: completed=%v but completed_at=%v", task.ID, task.Completed, task.CompletedAt)
		}
	}
	if g.Completed != all {
		t.Errorf("goal completed=%v, want %v", g.Completed, all)
	}
	if g.Completed != (g.CompletedAt != nil) {
		t.Errorf("goal completed=%v but completed_at=%v", g.Completed, g.CompletedAt)
	}
}

func TestGoal_ToggleLifecycle(t *testing.T) {
	g := newGoal(true, true, false)
	if g.Completed || g.CompletedAt != nil {
		t.Fatalf("two of three tasks done should leave the goal open, got completed=%v at=%v", g.Completed, g.CompletedAt)
	}

	toggleAt := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	if !g.ToggleTask("c", toggleAt) {
		t.Fatal("expected task c to be found")
	}
	if !g.Completed || g.CompletedAt == nil || !g.CompletedAt.Equal(toggleAt) {
		t.Fatalf("expected goal completed at %v, got completed=%v at=%v", toggleAt, g.Completed, g.CompletedAt)
	}
	assertGoalConsistent(t, g)

	g.ToggleTask("a", toggleAt.Add(time.Hour))
	if g.Completed || g.CompletedAt != nil {
		t.Fatalf("reopening a task should reopen the goal, got completed=%v at=%v", g.Completed, g.CompletedAt)
	}
	assertGoalConsistent(t, g)
}

func TestGoal_CompletedAtOnlyStampedOnTransition(t *testing.T) {
	g := newGoal(true, false)
	first := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	g.ToggleTask("b", first)

	g.RecomputeCompletion(first.Add(24 * time.Hour))
	if !g.CompletedAt.Equal(first) {
		t.Errorf("recompute of an already complete goal must keep completed_at %v, got %v", first, g.CompletedAt)
	}
}

func TestGoal_ToggleUnknownTask(t *testing.T) {
	g := newGoal(false)
	if g.ToggleTask("missing", time.Now()) {
		t.Error("expected unknown task id to report not found")
	}
}

func TestGoal_EmptyTaskListIsNotComplete(t *testing.T) {
	g := &Goal{Completed: true}
	g.RecomputeCompletion(time.Now())
	if g.Completed || g.CompletedAt != nil {
		t.Error("a goal without tasks must not be complete")
	}
}

func TestGoal_ConsistentAfterEveryToggle(t *testing.T) {
	g := newGoal(false, false, false, false)
	now := time.Now()
	for _, id := range []string{"a", "b", "c", "d", "b", "b", "a", "a", "c"} {
		g.ToggleTask(id, now)
		assertGoalConsistent(t, g)
	}
}
