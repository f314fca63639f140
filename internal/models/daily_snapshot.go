package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is the cached aggregate for one user and calendar day. It can
// always be rebuilt from transactions, goals, workouts and journals.
type DailySnapshot struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;uniqueIndex:idx_snapshots_user_date,priority:1" json:"user_id"`
	Date               time.Time       `gorm:"not null;uniqueIndex:idx_snapshots_user_date,priority:2" json:"date"`
	Income             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"income"`
	Expenses           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expenses"`
	Savings            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"savings"`
	TotalBalance       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_balance"`
	GoalsCompleted     int             `gorm:"not null;default:0" json:"goals_completed"`
	TotalGoals         int             `gorm:"not null;default:0" json:"total_goals"`
	WorkoutCompleted   bool            `gorm:"not null;default:false" json:"workout_completed"`
	WorkoutName        string          `gorm:"not null;default:''" json:"workout_name"`
	ExercisesCompleted int             `gorm:"not null;default:0" json:"exercises_completed"`
	TotalExercises     int             `gorm:"not null;default:0" json:"total_exercises"`
	JournalsWritten    int             `gorm:"not null;default:0" json:"journals_written"`
}

// SnapshotMetricColumns are rewritten in full on every upsert.
var SnapshotMetricColumns = []string{
	"income", "expenses", "savings", "total_balance",
	"goals_completed", "total_goals",
	"workout_completed", "workout_name", "exercises_completed", "total_exercises",
	"journals_written", "updated_at",
}
