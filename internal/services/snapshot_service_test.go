package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"empire/internal/models"
	"empire/internal/pagination"
	"empire/internal/testutil"
)

// SnapshotSuite runs the snapshot engine against a fresh database per test.
// The clock is pinned to Wednesday 2024-03-13 in UTC.
type SnapshotSuite struct {
	suite.Suite
	db    *gorm.DB
	clock *fakeClock
	svc   SnapshotServicer
	user  *models.User
	ctx   context.Context
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotSuite))
}

func (s *SnapshotSuite) SetupTest() {
	s.db = testutil.SetupTestDB(s.T())
	s.clock = newFakeClock(wednesday)
	s.svc = NewSnapshotService(s.db, utcCalendar(s.clock))
	s.user = testutil.CreateTestUser(s.T(), s.db)
	s.ctx = context.Background()
}

func (s *SnapshotSuite) TearDownTest() {
	testutil.TeardownTestDB(s.T(), s.db)
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func (s *SnapshotSuite) snapshotCount() int64 {
	var n int64
	require.NoError(s.T(), s.db.Model(&models.DailySnapshot{}).Where("user_id = ?", s.user.ID).Count(&n).Error)
	return n
}

// assertSameMetrics compares decimals by value and everything else exactly.
func assertSameMetrics(t *testing.T, want, got DayMetrics) {
	t.Helper()
	for name, pair := range map[string][2]decimal.Decimal{
		"income":        {want.Income, got.Income},
		"expenses":      {want.Expenses, got.Expenses},
		"savings":       {want.Savings, got.Savings},
		"total_balance": {want.TotalBalance, got.TotalBalance},
	} {
		assert.Truef(t, pair[0].Equal(pair[1]), "%s: want %s, got %s", name, pair[0], pair[1])
		assert.Equalf(t, pair[0].String(), pair[1].String(), "%s renders differently", name)
	}
	want.Income, want.Expenses, want.Savings, want.TotalBalance = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	got.Income, got.Expenses, got.Savings, got.TotalBalance = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	assert.Equal(t, want, got)
}

func (s *SnapshotSuite) TestComputeSnapshot_Idempotent() {
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "250.75", day(13).Add(9*time.Hour))
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeExpense, "20.25", day(13).Add(18*time.Hour))

	first, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(13).Add(15*time.Hour))
	require.NoError(s.T(), err)
	second, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(13))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(1), s.snapshotCount())
	assert.Equal(s.T(), first.ID, second.ID)
	assert.True(s.T(), first.Date.Equal(day(13)), "date must be truncated to the day")
	assert.True(s.T(), second.Income.Equal(decimal.RequireFromString("250.75")))
	assert.True(s.T(), second.Expenses.Equal(decimal.RequireFromString("20.25")))
	assert.True(s.T(), second.Savings.Equal(decimal.RequireFromString("230.5")))
	assert.True(s.T(), first.Savings.Equal(second.Savings))
	assert.True(s.T(), first.TotalBalance.Equal(second.TotalBalance))
	assert.Equal(s.T(), first.GoalsCompleted, second.GoalsCompleted)
	assert.Equal(s.T(), first.JournalsWritten, second.JournalsWritten)
}

func (s *SnapshotSuite) TestComputeSnapshot_UpsertReplacesValues() {
	_, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(12))
	require.NoError(s.T(), err)

	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "40", day(12))
	snap, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(12))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(1), s.snapshotCount())
	assert.True(s.T(), snap.Income.Equal(decimal.NewFromInt(40)), "got income %s", snap.Income)
}

func (s *SnapshotSuite) TestComputeSnapshot_TotalBalanceIsCumulative() {
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "100", day(1))
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeExpense, "30", day(3).Add(12*time.Hour))
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "50", day(5).Add(23*time.Hour))
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "1000", day(6))

	expected := map[int]string{1: "100", 2: "100", 3: "70", 4: "70", 5: "120"}
	for d, balance := range expected {
		snap, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(d))
		require.NoError(s.T(), err)
		assert.Truef(s.T(), snap.TotalBalance.Equal(decimal.RequireFromString(balance)),
			"day %d: want balance %s, got %s", d, balance, snap.TotalBalance)
	}
}

func (s *SnapshotSuite) TestComputeSnapshot_WorkoutFields() {
	week := testutil.CreateTestWorkoutWeek(s.T(), s.db, s.user.ID, day(10))
	monday := week.Days["Monday"]
	monday.Exercises[0].Completed = true
	week.Days["Monday"] = monday
	require.NoError(s.T(), s.db.Save(week).Error)

	snap, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(11))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Push Day", snap.WorkoutName)
	assert.Equal(s.T(), 1, snap.ExercisesCompleted)
	assert.Equal(s.T(), 2, snap.TotalExercises)
	assert.False(s.T(), snap.WorkoutCompleted)

	rest, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(13))
	require.NoError(s.T(), err)
	assert.Empty(s.T(), rest.WorkoutName, "rest days carry no workout fields")
	assert.Zero(s.T(), rest.TotalExercises)
	assert.False(s.T(), rest.WorkoutCompleted)
}

func (s *SnapshotSuite) TestComputeSnapshot_GoalsAndJournals() {
	testutil.CreateTestGoal(s.T(), s.db, s.user.ID, day(13).Add(8*time.Hour), true)
	testutil.CreateTestGoal(s.T(), s.db, s.user.ID, day(12).Add(8*time.Hour), true)
	testutil.CreateTestGoal(s.T(), s.db, s.user.ID, day(13), false)

	entry := testutil.CreateTestJournal(s.T(), s.db, s.user.ID, day(1))
	require.NoError(s.T(), s.db.Model(entry).UpdateColumn("created_at", day(13).Add(20*time.Hour)).Error)
	other := testutil.CreateTestJournal(s.T(), s.db, s.user.ID, day(13))
	require.NoError(s.T(), s.db.Model(other).UpdateColumn("created_at", day(14)).Error)

	snap, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(13))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, snap.GoalsCompleted)
	assert.Equal(s.T(), 3, snap.TotalGoals)
	assert.Equal(s.T(), 1, snap.JournalsWritten, "journals count by creation time")
}

func (s *SnapshotSuite) TestComputeSnapshot_ReadFailureWritesNothing() {
	require.NoError(s.T(), s.db.Migrator().DropTable(&models.Journal{}))

	_, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(13))
	require.Error(s.T(), err)
	assert.Equal(s.T(), int64(0), s.snapshotCount())
}

func (s *SnapshotSuite) TestGetWeek_CachedAndLiveAgree() {
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeIncome, "1000.10", day(11))
	testutil.CreateTestTransaction(s.T(), s.db, s.user.ID, models.TransactionTypeExpense, "33.33", day(12))
	testutil.CreateTestGoal(s.T(), s.db, s.user.ID, day(12).Add(time.Hour), true)
	testutil.CreateTestWorkoutWeek(s.T(), s.db, s.user.ID, day(10))

	_, err := s.svc.ComputeSnapshot(s.ctx, s.user.ID, day(11))
	require.NoError(s.T(), err)

	before, err := s.svc.GetWeek(s.ctx, s.user.ID, day(13))
	require.NoError(s.T(), err)
	require.Len(s.T(), before, 7)
	assert.Equal(s.T(), "Sunday", before[0].Day)
	assert.Equal(s.T(), "2024-03-10", before[0].Date)
	assert.Equal(s.T(), int64(1), s.snapshotCount(), "cache misses must not be persisted")

	require.NoError(s.T(), s.svc.RefreshWeek(s.ctx, s.user.ID, day(13)))
	assert.Equal(s.T(), int64(7), s.snapshotCount())

	after, err := s.svc.GetWeek(s.ctx, s.user.ID, day(10))
	require.NoError(s.T(), err)
	require.Len(s.T(), after, 7)

	// Monday was a hit both times, Tuesday a miss and then a hit.
	for i := range before {
		assertSameMetrics(s.T(), before[i], after[i])
	}
	assert.Equal(s.T(), 1, after[2].Goals)
	assert.True(s.T(), after[2].TotalBalance.Equal(decimal.RequireFromString("966.77")))
	assert.True(s.T(), after[2].Savings.Equal(decimal.RequireFromString("-33.33")))
}

func (s *SnapshotSuite) TestBackfill() {
	n, err := s.svc.Backfill(s.ctx, s.user.ID, 7)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 7, n)
	assert.Equal(s.T(), int64(7), s.snapshotCount())

	var dates []time.Time
	require.NoError(s.T(), s.db.Model(&models.DailySnapshot{}).Order("date ASC").Pluck("date", &dates).Error)
	require.Len(s.T(), dates, 7)
	assert.True(s.T(), dates[0].Equal(day(7)), "first day %v", dates[0])
	assert.True(s.T(), dates[6].Equal(day(13)), "last day must be today, got %v", dates[6])

	n, err = s.svc.Backfill(s.ctx, s.user.ID, 7)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 7, n)
	assert.Equal(s.T(), int64(7), s.snapshotCount(), "re-running must not duplicate")
}

func (s *SnapshotSuite) TestBackfill_RejectsOutOfRange() {
	for _, days := range []int{0, -1, MaxBackfillDays + 1} {
		_, err := s.svc.Backfill(s.ctx, s.user.ID, days)
		testutil.AssertAppError(s.T(), err, "INVALID_INPUT")
	}
}

func (s *SnapshotSuite) TestGetHistory() {
	_, err := s.svc.Backfill(s.ctx, s.user.ID, 5)
	require.NoError(s.T(), err)

	from, to := day(10), day(12)
	page, err := s.svc.GetHistory(s.user.ID, &from, &to, pagination.PageRequest{Page: 1, PageSize: 2})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(3), page.TotalItems)
	assert.Equal(s.T(), 2, page.TotalPages)
	require.Len(s.T(), page.Items, 2)
	assert.True(s.T(), page.Items[0].Date.Equal(day(12)), "newest first")
}
