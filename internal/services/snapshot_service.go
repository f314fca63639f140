package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/pagination"
	"empire/internal/timeutil"
)

// MaxBackfillDays bounds a single backfill request.
const MaxBackfillDays = 366

type snapshotService struct {
	db  *gorm.DB
	cal *timeutil.Calendar
}

// NewSnapshotService creates the daily snapshot engine. All day and week
// boundaries are evaluated in cal's location.
func NewSnapshotService(db *gorm.DB, cal *timeutil.Calendar) SnapshotServicer {
	return &snapshotService{db: db, cal: cal}
}

// ComputeSnapshot derives the metrics for date's calendar day and upserts
// them. Nothing is written if any source read fails.
func (s *snapshotService) ComputeSnapshot(ctx context.Context, userID string, date time.Time) (*models.DailySnapshot, error) {
	db := s.db.WithContext(ctx)

	snap, err := s.measure(db, userID, date)
	if err != nil {
		return nil, err
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(models.SnapshotMetricColumns),
	}).Create(snap).Error; err != nil {
		return nil, internal(err)
	}

	var stored models.DailySnapshot
	if err := db.Where("user_id = ? AND date = ?", userID, snap.Date).First(&stored).Error; err != nil {
		return nil, internal(err)
	}
	return &stored, nil
}

// GetWeek returns seven days of metrics starting at the Sunday of weekStart's
// week. Stored snapshots are used as is; missing days are computed live
// without being persisted.
func (s *snapshotService) GetWeek(ctx context.Context, userID string, weekStart time.Time) ([]DayMetrics, error) {
	db := s.db.WithContext(ctx)
	days := s.cal.WeekDays(weekStart)

	keys := make([]time.Time, len(days))
	for i, d := range days {
		keys[i] = d.UTC()
	}
	var cached []models.DailySnapshot
	if err := db.Where("user_id = ? AND date IN ?", userID, keys).Find(&cached).Error; err != nil {
		return nil, internal(err)
	}
	byDate := make(map[int64]*models.DailySnapshot, len(cached))
	for i := range cached {
		byDate[cached[i].Date.Unix()] = &cached[i]
	}

	week := make([]DayMetrics, 0, len(days))
	for _, day := range days {
		snap, ok := byDate[day.Unix()]
		if !ok {
			live, err := s.measure(db, userID, day)
			if err != nil {
				return nil, err
			}
			snap = live
		}
		week = append(week, s.project(snap))
	}
	return week, nil
}

// RefreshWeek recomputes all seven days of the week containing anchor.
func (s *snapshotService) RefreshWeek(ctx context.Context, userID string, anchor time.Time) error {
	for _, day := range s.cal.WeekDays(anchor) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.ComputeSnapshot(ctx, userID, day); err != nil {
			return err
		}
	}
	return nil
}

// Backfill computes the snapshots of the last days calendar days, today
// included, one at a time.
func (s *snapshotService) Backfill(ctx context.Context, userID string, days int) (int, error) {
	if days < 1 || days > MaxBackfillDays {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be between 1 and 366")
	}

	today := s.cal.Today()
	computed := 0
	for i := days - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return computed, err
		}
		if _, err := s.ComputeSnapshot(ctx, userID, today.AddDate(0, 0, -i)); err != nil {
			return computed, err
		}
		computed++
	}
	return computed, nil
}

// GetHistory pages through stored snapshots, newest day first.
func (s *snapshotService) GetHistory(userID string, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailySnapshot], error) {
	page.Defaults()

	base := func() *gorm.DB {
		q := s.db.Model(&models.DailySnapshot{}).Where("user_id = ?", userID)
		if from != nil {
			q = q.Where("date >= ?", s.cal.StartOfDay(*from).UTC())
		}
		if to != nil {
			_, next := s.cal.DayBounds(*to)
			q = q.Where("date < ?", next.UTC())
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, internal(err)
	}
	var snaps []models.DailySnapshot
	if err := base().Scopes(pagination.Paginate(page)).Order("date DESC").Find(&snaps).Error; err != nil {
		return nil, internal(err)
	}

	result := pagination.NewPageResponse(snaps, page, total)
	return &result, nil
}

// measure reads the four source stores for one day.
func (s *snapshotService) measure(db *gorm.DB, userID string, date time.Time) (*models.DailySnapshot, error) {
	start, next := s.cal.DayBounds(date)
	startUTC, nextUTC := start.UTC(), next.UTC()

	snap := &models.DailySnapshot{UserID: userID, Date: startUTC}

	var week models.Workout
	err := db.Where("user_id = ? AND week_id = ? AND is_template = ?", userID, s.cal.WeekID(start), false).
		First(&week).Error
	switch {
	case err == nil:
		if day, ok := week.Day(s.cal.WeekdayName(start)); ok && len(day.Exercises) > 0 {
			snap.ExercisesCompleted, snap.TotalExercises = day.Progress()
			snap.WorkoutCompleted = day.IsComplete()
			snap.WorkoutName = day.Name
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, internal(err)
	}

	var goalsCompleted, totalGoals int64
	if err := db.Model(&models.Goal{}).
		Where("user_id = ? AND completed = ? AND completed_at >= ? AND completed_at < ?", userID, true, startUTC, nextUTC).
		Count(&goalsCompleted).Error; err != nil {
		return nil, internal(err)
	}
	if err := db.Model(&models.Goal{}).Where("user_id = ?", userID).Count(&totalGoals).Error; err != nil {
		return nil, internal(err)
	}
	snap.GoalsCompleted, snap.TotalGoals = int(goalsCompleted), int(totalGoals)

	day, err := sumLedger(db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, startUTC, nextUTC))
	if err != nil {
		return nil, err
	}
	toDate, err := sumLedger(db.Model(&models.Transaction{}).
		Where("user_id = ? AND date < ?", userID, nextUTC))
	if err != nil {
		return nil, err
	}
	snap.Income, snap.Expenses, snap.Savings = day.income, day.expenses, day.net()
	snap.TotalBalance = toDate.net()

	var journals int64
	if err := db.Model(&models.Journal{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startUTC, nextUTC).
		Count(&journals).Error; err != nil {
		return nil, internal(err)
	}
	snap.JournalsWritten = int(journals)

	return snap, nil
}

// project maps a snapshot to the chart row. Money is rounded to cents so the
// stored and live paths render the same values.
func (s *snapshotService) project(snap *models.DailySnapshot) DayMetrics {
	day := snap.Date.In(s.cal.Location())
	workouts := 0
	if snap.WorkoutCompleted {
		workouts = 1
	}
	return DayMetrics{
		Day:                s.cal.WeekdayName(day),
		Date:               day.Format(timeutil.DateFormat),
		Workouts:           workouts,
		Goals:              snap.GoalsCompleted,
		Income:             snap.Income.Round(2),
		Expenses:           snap.Expenses.Round(2),
		Savings:            snap.Savings.Round(2),
		TotalBalance:       snap.TotalBalance.Round(2),
		TotalGoals:         snap.TotalGoals,
		WorkoutName:        snap.WorkoutName,
		ExercisesCompleted: snap.ExercisesCompleted,
		TotalExercises:     snap.TotalExercises,
		JournalsWritten:    snap.JournalsWritten,
	}
}
