package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/timeutil"
)

type workoutService struct {
	db        *gorm.DB
	cal       *timeutil.Calendar
	refresher WeekRefresher
}

// NewWorkoutService creates a new WorkoutServicer.
func NewWorkoutService(db *gorm.DB, cal *timeutil.Calendar, refresher WeekRefresher) WorkoutServicer {
	return &workoutService{db: db, cal: cal, refresher: refresher}
}

// GetTemplate returns the user's template, creating the default plan on
// first access.
func (s *workoutService) GetTemplate(userID string) (*models.Workout, error) {
	return s.getOrCreate(s.db, userID, models.TemplateWeekID, func() (*models.Workout, error) {
		return &models.Workout{
			UserID:     userID,
			WeekID:     models.TemplateWeekID,
			StartDate:  s.cal.Today().UTC(),
			IsTemplate: true,
			Days:       models.DefaultTemplateDays(),
		}, nil
	})
}

// UpdateTemplate replaces the template's days. Existing weeks are not
// touched until they are synced.
func (s *workoutService) UpdateTemplate(userID string, days models.WeekDays) (*models.Workout, error) {
	template, err := s.GetTemplate(userID)
	if err != nil {
		return nil, err
	}
	template.Days = days.Normalize(s.cal.Now())
	if err := s.db.Save(template).Error; err != nil {
		return nil, internal(err)
	}
	return template, nil
}

// GetWeek returns the week instance for weekID, cloning it from the template
// if it does not exist yet. An empty weekID selects the current week.
func (s *workoutService) GetWeek(userID, weekID string) (*models.Workout, error) {
	weekID, weekStart, err := s.resolveWeek(weekID)
	if err != nil {
		return nil, err
	}
	return s.getOrCreate(s.db, userID, weekID, func() (*models.Workout, error) {
		template, err := s.GetTemplate(userID)
		if err != nil {
			return nil, err
		}
		return &models.Workout{
			UserID:    userID,
			WeekID:    weekID,
			StartDate: weekStart.UTC(),
			Days:      template.Days.CloneReset(),
		}, nil
	})
}

// UpdateWeek replaces an open week's days.
func (s *workoutService) UpdateWeek(userID, weekID string, days models.WeekDays) (*models.Workout, error) {
	week, err := s.openWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	week.Days = days.Normalize(s.cal.Now())
	return s.saveWeek(week)
}

// ToggleExercise flips one exercise's completion in an open week.
func (s *workoutService) ToggleExercise(userID, weekID, day, exerciseID string) (*models.Workout, error) {
	week, err := s.openWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	dayFound, exerciseFound := week.ToggleExercise(day, exerciseID, s.cal.Now())
	switch {
	case !dayFound:
		return nil, apperrors.ErrDayNotFound
	case !exerciseFound:
		return nil, apperrors.ErrExerciseNotFound
	}
	return s.saveWeek(week)
}

// ArchiveWeek closes a week. Archiving an archived week returns it as is.
func (s *workoutService) ArchiveWeek(userID, weekID string) (*models.Workout, error) {
	if _, _, err := s.resolveWeek(weekID); err != nil {
		return nil, err
	}
	week, err := s.findWeek(s.db, userID, weekID)
	if err != nil {
		return nil, err
	}
	if _, err := s.archive(s.db, week); err != nil {
		return nil, err
	}
	return s.findWeek(s.db, userID, weekID)
}

// ArchiveEndedWeek archives the week before the one containing now. It
// reports false when the user has no such week or it was already archived.
func (s *workoutService) ArchiveEndedWeek(ctx context.Context, userID string, now time.Time) (bool, error) {
	db := s.db.WithContext(ctx)
	weekID := s.cal.WeekStart(now).AddDate(0, 0, -7).Format(timeutil.DateFormat)

	week, err := s.findWeek(db, userID, weekID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWorkoutNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.archive(db, week)
}

// SyncWithTemplate re-applies the template to an open week, keeping the
// completion of exercises whose names match.
func (s *workoutService) SyncWithTemplate(userID, weekID string) (*models.Workout, error) {
	week, err := s.openWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	template, err := s.GetTemplate(userID)
	if err != nil {
		return nil, err
	}
	week.Days = week.Days.SyncFrom(template.Days)
	return s.saveWeek(week)
}

// GetHistory lists archived weeks, most recently archived first.
func (s *workoutService) GetHistory(userID string) ([]models.Workout, error) {
	var weeks []models.Workout
	if err := s.db.
		Where("user_id = ? AND is_template = ? AND archived_at IS NOT NULL", userID, false).
		Order("archived_at DESC").
		Find(&weeks).Error; err != nil {
		return nil, internal(err)
	}
	return weeks, nil
}

// DeleteWeek removes a week instance. The template cannot be deleted.
func (s *workoutService) DeleteWeek(userID, weekID string) error {
	if _, _, err := s.resolveWeek(weekID); err != nil {
		return err
	}
	week, err := s.findWeek(s.db, userID, weekID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(week).Error; err != nil {
		return internal(err)
	}
	enqueue(s.refresher, userID, week.StartDate)
	return nil
}

// resolveWeek validates a week id. Empty selects the current week.
func (s *workoutService) resolveWeek(weekID string) (string, time.Time, error) {
	if weekID == "" {
		start := s.cal.WeekStart(s.cal.Now())
		return start.Format(timeutil.DateFormat), start, nil
	}
	start, err := s.cal.ParseWeekID(weekID)
	if err != nil {
		return "", time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return weekID, start, nil
}

func (s *workoutService) findWeek(db *gorm.DB, userID, weekID string) (*models.Workout, error) {
	var week models.Workout
	if err := db.Where("user_id = ? AND week_id = ?", userID, weekID).First(&week).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWorkoutNotFound
		}
		return nil, internal(err)
	}
	return &week, nil
}

// getOrCreate reads (user, weekID) and inserts build's row when missing.
// Concurrent first reads race on the unique index; the loser's insert is a
// no-op and both return the stored row.
func (s *workoutService) getOrCreate(db *gorm.DB, userID, weekID string, build func() (*models.Workout, error)) (*models.Workout, error) {
	week, err := s.findWeek(db, userID, weekID)
	if err == nil || !errors.Is(err, apperrors.ErrWorkoutNotFound) {
		return week, err
	}

	fresh, err := build()
	if err != nil {
		return nil, err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, internal(err)
	}
	return s.findWeek(db, userID, weekID)
}

// openWeek loads a week that may still be modified.
func (s *workoutService) openWeek(userID, weekID string) (*models.Workout, error) {
	week, err := s.GetWeek(userID, weekID)
	if err != nil {
		return nil, err
	}
	if week.Archived() {
		return nil, apperrors.ErrWorkoutArchived
	}
	return week, nil
}

func (s *workoutService) saveWeek(week *models.Workout) (*models.Workout, error) {
	if err := s.db.Save(week).Error; err != nil {
		return nil, internal(err)
	}
	enqueue(s.refresher, week.UserID, week.StartDate)
	return week, nil
}

// archive stamps end and archival times once. The conditional update keeps
// concurrent archivers from overwriting the first stamp.
func (s *workoutService) archive(db *gorm.DB, week *models.Workout) (bool, error) {
	if week.Archived() || week.IsTemplate {
		return false, nil
	}
	end := s.cal.WeekEnd(week.StartDate).UTC()
	res := db.Model(&models.Workout{}).
		Where("id = ? AND archived_at IS NULL", week.ID).
		Updates(map[string]any{"end_date": end, "archived_at": s.cal.Now().UTC()})
	if res.Error != nil {
		return false, internal(res.Error)
	}
	return res.RowsAffected == 1, nil
}
