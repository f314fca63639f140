package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"empire/internal/models"
	"empire/internal/pagination"
)

// WeekRefresher schedules a rebuild of the cached snapshots for the week
// containing date. Implementations must not block the caller.
type WeekRefresher interface {
	Enqueue(userID string, date time.Time)
}

// ProfileUpdate holds optional profile changes. Nil fields are left as is.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	Avatar          *string
	CurrentPassword string
	NewPassword     *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password, avatar string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateProfile(userID string, update ProfileUpdate) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	ListUserIDs() ([]string, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type     *models.TransactionType
	FromDate *time.Time
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Item     string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
	Type     models.TransactionType
}

// TransactionUpdate holds optional transaction changes.
type TransactionUpdate struct {
	Item     *string
	Amount   *decimal.Decimal
	Category *string
	Date     *time.Time
	Type     *models.TransactionType
}

// TransactionStats summarizes a user's ledger over a range.
type TransactionStats struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetStats(userID string, filter TransactionFilter) (*TransactionStats, error)
}

// TaskInput is a task as submitted by a client. ID is optional.
type TaskInput struct {
	ID        string
	Title     string
	Completed bool
}

// GoalInput carries a goal's replaceable fields.
type GoalInput struct {
	Title      string
	Tasks      []TaskInput
	TargetDate *time.Time
}

// GoalFilter holds optional filter parameters for listing goals. Since
// matches goals created or completed at or after the given instant.
type GoalFilter struct {
	Completed *bool
	Since     *time.Time
}

// GoalStats summarizes goals and their tasks.
type GoalStats struct {
	TotalGoals         int     `json:"total_goals"`
	CompletedGoals     int     `json:"completed_goals"`
	ActiveGoals        int     `json:"active_goals"`
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	CompletionRate     float64 `json:"completion_rate"`
	TaskCompletionRate float64 `json:"task_completion_rate"`
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	GetUserGoals(userID string, filter GoalFilter) ([]models.Goal, error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	CreateGoal(userID string, in GoalInput) (*models.Goal, error)
	UpdateGoal(userID, goalID string, in GoalInput) (*models.Goal, error)
	ToggleTask(userID, goalID, taskID string) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	GetStats(userID string, filter GoalFilter) (*GoalStats, error)
}

// WorkoutServicer defines the contract for weekly workout plans.
type WorkoutServicer interface {
	GetTemplate(userID string) (*models.Workout, error)
	UpdateTemplate(userID string, days models.WeekDays) (*models.Workout, error)
	GetWeek(userID, weekID string) (*models.Workout, error)
	UpdateWeek(userID, weekID string, days models.WeekDays) (*models.Workout, error)
	ToggleExercise(userID, weekID, day, exerciseID string) (*models.Workout, error)
	ArchiveWeek(userID, weekID string) (*models.Workout, error)
	ArchiveEndedWeek(ctx context.Context, userID string, now time.Time) (bool, error)
	SyncWithTemplate(userID, weekID string) (*models.Workout, error)
	GetHistory(userID string) ([]models.Workout, error)
	DeleteWeek(userID, weekID string) error
}

// JournalInput carries a journal entry's fields.
type JournalInput struct {
	Title   string
	Content string
	Date    time.Time
}

// JournalFilter restricts entries to one month when both fields are set.
type JournalFilter struct {
	Month int
	Year  int
}

// MonthCount is the number of entries dated in one month.
type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// JournalStats summarizes journal activity.
type JournalStats struct {
	TotalEntries   int64        `json:"total_entries"`
	EntriesByMonth []MonthCount `json:"entries_by_month"`
}

// JournalServicer defines the contract for journal entries.
type JournalServicer interface {
	GetUserJournals(userID string, filter JournalFilter) ([]models.Journal, error)
	GetJournalByID(userID, journalID string) (*models.Journal, error)
	CreateJournal(userID string, in JournalInput) (*models.Journal, error)
	UpdateJournal(userID, journalID string, in JournalInput) (*models.Journal, error)
	DeleteJournal(userID, journalID string) error
	GetStats(userID string, filter JournalFilter) (*JournalStats, error)
}

// TrashServicer defines the contract for the trash holding area.
type TrashServicer interface {
	MoveToTrash(userID string, itemType models.TrashType, originalID string) (*models.TrashItem, error)
	ListTrash(userID string) ([]models.TrashItem, error)
	Restore(userID, trashID string) (*models.TrashItem, error)
	DeleteItem(userID, trashID string) error
	Empty(userID string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// DayMetrics is one day of a weekly chart. Values are identical whether they
// come from a stored snapshot or a live computation.
type DayMetrics struct {
	Day                string          `json:"day"`
	Date               string          `json:"date"`
	Workouts           int             `json:"workouts"`
	Goals              int             `json:"goals"`
	Income             decimal.Decimal `json:"income"`
	Expenses           decimal.Decimal `json:"expenses"`
	Savings            decimal.Decimal `json:"savings"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	TotalGoals         int             `json:"total_goals"`
	WorkoutName        string          `json:"workout_name"`
	ExercisesCompleted int             `json:"exercises_completed"`
	TotalExercises     int             `json:"total_exercises"`
	JournalsWritten    int             `json:"journals_written"`
}

// SnapshotServicer is the daily snapshot engine.
type SnapshotServicer interface {
	ComputeSnapshot(ctx context.Context, userID string, date time.Time) (*models.DailySnapshot, error)
	GetWeek(ctx context.Context, userID string, weekStart time.Time) ([]DayMetrics, error)
	RefreshWeek(ctx context.Context, userID string, anchor time.Time) error
	Backfill(ctx context.Context, userID string, days int) (int, error)
	GetHistory(userID string, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailySnapshot], error)
}

// DashboardStats is the current-week rollup.
type DashboardStats struct {
	Savings           decimal.Decimal `json:"savings"`
	SavingsChange     int64           `json:"savings_change"`
	WorkoutsCompleted int             `json:"workouts_completed"`
	TotalWorkoutDays  int             `json:"total_workout_days"`
	GoalsCompleted    int64           `json:"goals_completed"`
	TotalGoals        int64           `json:"total_goals"`
}

// DayGoal is a goal completed on a given day.
type DayGoal struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// DayWorkout is the workout planned for a given day.
type DayWorkout struct {
	Title     string   `json:"title"`
	Exercises []string `json:"exercises"`
}

// DayBudget totals one day's ledger entries.
type DayBudget struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// DayJournal is a journal entry written on a given day.
type DayJournal struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DayActivities is everything recorded for one calendar day.
type DayActivities struct {
	Date     string       `json:"date"`
	Goals    []DayGoal    `json:"goals"`
	Workouts []DayWorkout `json:"workouts"`
	Budget   DayBudget    `json:"budget"`
	Journals []DayJournal `json:"journals"`
}

// DashboardServicer serves the dashboard views.
type DashboardServicer interface {
	GetStats(ctx context.Context, userID string) (*DashboardStats, error)
	GetWeekly(ctx context.Context, userID string, weekStart *time.Time) ([]DayMetrics, error)
	GetDay(ctx context.Context, userID string, date time.Time) (*DayActivities, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
