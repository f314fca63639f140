package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"empire/internal/models"
	"empire/internal/timeutil"
)

type dashboardService struct {
	db        *gorm.DB
	cal       *timeutil.Calendar
	snapshots SnapshotServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, cal *timeutil.Calendar, snapshots SnapshotServicer) DashboardServicer {
	return &dashboardService{db: db, cal: cal, snapshots: snapshots}
}

// GetStats rolls up the current week. Savings is the balance to date and
// SavingsChange its percent change against the balance before this week.
func (s *dashboardService) GetStats(ctx context.Context, userID string) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	now := s.cal.Now()
	_, tomorrow := s.cal.DayBounds(now)
	weekStart := s.cal.WeekStart(now)
	nextWeek := weekStart.AddDate(0, 0, 7)

	ledger := func() *gorm.DB { return db.Model(&models.Transaction{}).Where("user_id = ?", userID) }
	toDate, err := sumLedger(ledger().Where("date < ?", tomorrow.UTC()))
	if err != nil {
		return nil, err
	}
	lastWeek, err := sumLedger(ledger().Where("date < ?", weekStart.UTC()))
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Savings:       toDate.net().Round(2),
		SavingsChange: percentChange(lastWeek.net(), toDate.net()),
	}

	var week models.Workout
	err = db.Where("user_id = ? AND week_id = ? AND is_template = ?", userID, s.cal.WeekID(now), false).First(&week).Error
	switch {
	case err == nil:
		for _, d := range week.Days {
			if len(d.Exercises) == 0 {
				continue
			}
			stats.TotalWorkoutDays++
			if d.IsComplete() {
				stats.WorkoutsCompleted++
			}
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, internal(err)
	}

	goals := func() *gorm.DB { return db.Model(&models.Goal{}).Where("user_id = ?", userID) }
	if err := goals().
		Where("completed = ? AND completed_at >= ? AND completed_at < ?", true, weekStart.UTC(), nextWeek.UTC()).
		Count(&stats.GoalsCompleted).Error; err != nil {
		return nil, internal(err)
	}
	if err := goals().
		Where("created_at < ?", nextWeek.UTC()).
		Where("completed = ? OR completed_at >= ?", false, weekStart.UTC()).
		Count(&stats.TotalGoals).Error; err != nil {
		return nil, internal(err)
	}
	return stats, nil
}

// GetWeekly returns the chart rows for weekStart's week, or the current week
// when weekStart is nil.
func (s *dashboardService) GetWeekly(ctx context.Context, userID string, weekStart *time.Time) ([]DayMetrics, error) {
	start := s.cal.Now()
	if weekStart != nil {
		start = *weekStart
	}
	return s.snapshots.GetWeek(ctx, userID, s.cal.WeekStart(start))
}

// GetDay lists everything recorded on date's calendar day.
func (s *dashboardService) GetDay(ctx context.Context, userID string, date time.Time) (*DayActivities, error) {
	db := s.db.WithContext(ctx)
	start, next := s.cal.DayBounds(date)
	startUTC, nextUTC := start.UTC(), next.UTC()

	out := &DayActivities{
		Date:     start.Format(timeutil.DateFormat),
		Goals:    []DayGoal{},
		Workouts: []DayWorkout{},
		Journals: []DayJournal{},
	}

	var goals []models.Goal
	if err := db.Where("user_id = ? AND completed = ? AND completed_at >= ? AND completed_at < ?", userID, true, startUTC, nextUTC).
		Order("completed_at ASC").
		Find(&goals).Error; err != nil {
		return nil, internal(err)
	}
	for _, g := range goals {
		out.Goals = append(out.Goals, DayGoal{ID: g.ID, Title: g.Title, Completed: g.Completed})
	}

	var week models.Workout
	err := db.Where("user_id = ? AND week_id = ? AND is_template = ?", userID, s.cal.WeekID(start), false).First(&week).Error
	switch {
	case err == nil:
		if d, ok := week.Day(s.cal.WeekdayName(start)); ok && len(d.Exercises) > 0 {
			names := make([]string, 0, len(d.Exercises))
			for _, ex := range d.Exercises {
				names = append(names, ex.Name)
			}
			out.Workouts = append(out.Workouts, DayWorkout{Title: d.Name, Exercises: names})
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, internal(err)
	}

	totals, err := sumLedger(db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, startUTC, nextUTC))
	if err != nil {
		return nil, err
	}
	out.Budget = DayBudget{Income: totals.income.Round(2), Expenses: totals.expenses.Round(2)}

	var journals []models.Journal
	if err := db.Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startUTC, nextUTC).
		Order("created_at ASC").
		Find(&journals).Error; err != nil {
		return nil, internal(err)
	}
	for _, j := range journals {
		out.Journals = append(out.Journals, DayJournal{ID: j.ID, Title: j.Title, Content: j.Content})
	}
	return out, nil
}

// percentChange is (current-previous)/|previous| as a whole percentage. From
// a zero baseline any gain is +100 and any loss -100.
func percentChange(previous, current decimal.Decimal) int64 {
	if previous.IsZero() {
		switch current.Sign() {
		case 1:
			return 100
		case -1:
			return -100
		}
		return 0
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
