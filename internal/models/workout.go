package models

import (
	"strings"
	"time"

	"empire/internal/uuid"
)

// TemplateWeekID is the week id stored on a user's template workout.
const TemplateWeekID = "template"

// DayNames lists workout day keys in week order.
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Exercise is one planned exercise inside a workout day.
type Exercise struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Sets        string     `json:"sets"`
	Reps        string     `json:"reps"`
	RepsUnit    string     `json:"reps_unit"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// WorkoutDay is the plan for one weekday.
type WorkoutDay struct {
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

// Progress returns the completed and total exercise counts.
func (d WorkoutDay) Progress() (completed, total int) {
	for _, ex := range d.Exercises {
		if ex.Completed {
			completed++
		}
	}
	return completed, len(d.Exercises)
}

// IsComplete is true iff the day has at least one exercise and all are done.
// A rest day is neither complete nor pending.
func (d WorkoutDay) IsComplete() bool {
	completed, total := d.Progress()
	return total > 0 && completed == total
}

// WeekDays maps a weekday name to its plan.
type WeekDays map[string]WorkoutDay

// Workout is either a user's template (IsTemplate, WeekID "template") or the
// instance for the week starting on the Sunday named by WeekID.
type Workout struct {
	Base
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_workouts_user_week,priority:1" json:"user_id"`
	WeekID     string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_workouts_user_week,priority:2" json:"week_id"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	IsTemplate bool       `gorm:"not null;default:false" json:"is_template"`
	ArchivedAt *time.Time `gorm:"index" json:"archived_at"`
	Days       WeekDays   `gorm:"type:jsonb;serializer:json;not null" json:"days"`
}

func (w *Workout) OwnerID() string { return w.UserID }

// Archived reports whether the week has been closed.
func (w *Workout) Archived() bool { return w.ArchivedAt != nil }

// Day returns the plan for a weekday name.
func (w *Workout) Day(name string) (WorkoutDay, bool) {
	d, ok := w.Days[name]
	return d, ok
}

// ToggleExercise flips one exercise and stamps or clears its completion time.
// The booleans report whether the day and the exercise were found.
func (w *Workout) ToggleExercise(day, exerciseID string, now time.Time) (dayFound, exerciseFound bool) {
	d, ok := w.Days[day]
	if !ok {
		return false, false
	}
	for i := range d.Exercises {
		ex := &d.Exercises[i]
		if ex.ID != exerciseID {
			continue
		}
		ex.Completed = !ex.Completed
		if ex.Completed {
			ts := now.UTC()
			ex.CompletedAt = &ts
		} else {
			ex.CompletedAt = nil
		}
		w.Days[day] = d
		return true, true
	}
	return true, false
}

// Normalize fills in all seven days, assigns missing exercise ids, defaults
// the reps unit and aligns completion timestamps with their flags.
func (d WeekDays) Normalize(now time.Time) WeekDays {
	out := make(WeekDays, len(DayNames))
	for _, name := range DayNames {
		day, ok := d[name]
		if !ok {
			day = WorkoutDay{Name: "Rest Day"}
		}
		exercises := make([]Exercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				continue
			}
			if ex.ID == "" {
				ex.ID = uuid.New()
			}
			if ex.RepsUnit == "" {
				ex.RepsUnit = "reps"
			}
			switch {
			case ex.Completed && ex.CompletedAt == nil:
				ts := now.UTC()
				ex.CompletedAt = &ts
			case !ex.Completed:
				ex.CompletedAt = nil
			}
			exercises = append(exercises, ex)
		}
		day.Exercises = exercises
		out[name] = day
	}
	return out
}

// CloneReset copies the plan with fresh exercise ids and all completion
// cleared, as used when a week is created from the template.
func (d WeekDays) CloneReset() WeekDays {
	out := make(WeekDays, len(DayNames))
	for _, name := range DayNames {
		src, ok := d[name]
		if !ok {
			src = WorkoutDay{Name: "Rest Day"}
		}
		day := WorkoutDay{Name: src.Name, Exercises: make([]Exercise, 0, len(src.Exercises))}
		for _, ex := range src.Exercises {
			day.Exercises = append(day.Exercises, Exercise{
				ID:       uuid.New(),
				Name:     ex.Name,
				Sets:     ex.Sets,
				Reps:     ex.Reps,
				RepsUnit: ex.RepsUnit,
			})
		}
		out[name] = day
	}
	return out
}

// SyncFrom replaces the plan with template while keeping the completion state
// of exercises whose names match case-insensitively. Days the template does
// not define are left untouched.
func (d WeekDays) SyncFrom(template WeekDays) WeekDays {
	out := make(WeekDays, len(DayNames))
	for _, name := range DayNames {
		current := d[name]
		tmpl, ok := template[name]
		if !ok {
			out[name] = current
			continue
		}

		done := make(map[string]*time.Time)
		for _, ex := range current.Exercises {
			if ex.Completed {
				done[strings.ToLower(ex.Name)] = ex.CompletedAt
			}
		}

		day := WorkoutDay{Name: tmpl.Name, Exercises: make([]Exercise, 0, len(tmpl.Exercises))}
		for _, ex := range tmpl.Exercises {
			next := Exercise{
				ID:       uuid.New(),
				Name:     ex.Name,
				Sets:     ex.Sets,
				Reps:     ex.Reps,
				RepsUnit: ex.RepsUnit,
			}
			if at, ok := done[strings.ToLower(ex.Name)]; ok {
				next.Completed = true
				next.CompletedAt = at
			}
			day.Exercises = append(day.Exercises, next)
		}
		out[name] = day
	}
	return out
}

// DefaultTemplateDays is the plan given to users who have no template yet.
func DefaultTemplateDays() WeekDays {
	ex := func(name, reps, sets, unit string) Exercise {
		return Exercise{ID: uuid.New(), Name: name, Sets: sets, Reps: reps, RepsUnit: unit}
	}
	return WeekDays{
		"Sunday": {Name: "Rest Day", Exercises: []Exercise{}},
		"Monday": {Name: "Push Day", Exercises: []Exercise{
			ex("Push-ups", "15", "3", "reps"),
			ex("Bench Press", "12", "4", "reps"),
		}},
		"Tuesday": {Name: "Leg Day", Exercises: []Exercise{
			ex("Squats", "12", "4", "reps"),
			ex("Lunges", "10", "3", "reps"),
		}},
		"Wednesday": {Name: "Rest Day", Exercises: []Exercise{}},
		"Thursday": {Name: "Pull Day", Exercises: []Exercise{
			ex("Pull-ups", "10", "3", "reps"),
			ex("Rows", "12", "4", "reps"),
		}},
		"Friday": {Name: "Cardio", Exercises: []Exercise{
			ex("Running", "30", "1", "minutes"),
		}},
		"Saturday": {Name: "Full Body", Exercises: []Exercise{
			ex("Deadlifts", "10", "3", "reps"),
			ex("Planks", "60", "3", "seconds"),
		}},
	}
}
