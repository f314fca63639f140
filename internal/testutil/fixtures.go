package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"empire/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", nextID()),
		Email:    email,
		Password: string(hash),
		Avatar:   models.DefaultAvatar,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a ledger entry of the given type and amount on date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:   userID,
		Item:     fmt.Sprintf("Item %d", nextID()),
		Amount:   decimal.RequireFromString(amount),
		Category: "General",
		Date:     date.UTC(),
		Type:     txType,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestGoal creates a goal whose tasks have the given completion flags.
// Completion timestamps are stamped at completedAt.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, completedAt time.Time, tasks ...bool) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID: userID,
		Title:  fmt.Sprintf("Goal %d", nextID()),
		Tasks:  []models.GoalTask{},
	}
	for i, done := range tasks {
		goal.Tasks = append(goal.Tasks, models.GoalTask{Title: fmt.Sprintf("Task %d", i+1), Completed: done})
	}
	goal.EnsureTaskIDs(completedAt)
	goal.RecomputeCompletion(completedAt)
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestWorkoutWeek creates a week instance cloned from the default
// template for the week starting at weekStart.
func CreateTestWorkoutWeek(t *testing.T, db *gorm.DB, userID string, weekStart time.Time) *models.Workout {
	t.Helper()

	w := &models.Workout{
		UserID:    userID,
		WeekID:    weekStart.Format("2006-01-02"),
		StartDate: weekStart.UTC(),
		Days:      models.DefaultTemplateDays().CloneReset(),
	}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("failed to create test workout: %v", err)
	}
	return w
}

// CreateTestJournal creates a journal entry dated date.
func CreateTestJournal(t *testing.T, db *gorm.DB, userID string, date time.Time) *models.Journal {
	t.Helper()

	j := &models.Journal{
		UserID:  userID,
		Title:   fmt.Sprintf("Entry %d", nextID()),
		Content: "Today was a good day.",
		Date:    date.UTC(),
	}
	if err := db.Create(j).Error; err != nil {
		t.Fatalf("failed to create test journal: %v", err)
	}
	return j
}
