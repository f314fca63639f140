package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/timeutil"
)

type journalService struct {
	db        *gorm.DB
	cal       *timeutil.Calendar
	refresher WeekRefresher
}

// NewJournalService creates a new JournalServicer.
func NewJournalService(db *gorm.DB, cal *timeutil.Calendar, refresher WeekRefresher) JournalServicer {
	return &journalService{db: db, cal: cal, refresher: refresher}
}

// monthRange returns [first, next) of the filtered month, or ok=false when
// the filter is incomplete.
func (s *journalService) monthRange(f JournalFilter) (time.Time, time.Time, bool) {
	if f.Month < 1 || f.Month > 12 || f.Year < 1 {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, s.cal.Location())
	return start.UTC(), start.AddDate(0, 1, 0).UTC(), true
}

func (s *journalService) scoped(userID string, filter JournalFilter) *gorm.DB {
	q := s.db.Model(&models.Journal{}).Where("user_id = ?", userID)
	if start, next, ok := s.monthRange(filter); ok {
		q = q.Where("date >= ? AND date < ?", start, next)
	}
	return q
}

// GetUserJournals lists entries, newest date first.
func (s *journalService) GetUserJournals(userID string, filter JournalFilter) ([]models.Journal, error) {
	var entries []models.Journal
	if err := s.scoped(userID, filter).Order("date DESC").Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, internal(err)
	}
	return entries, nil
}

func (s *journalService) GetJournalByID(userID, journalID string) (*models.Journal, error) {
	return findOwned[models.Journal](s.db, userID, journalID, apperrors.ErrJournalNotFound)
}

// CreateJournal stores an entry. A zero date defaults to today.
func (s *journalService) CreateJournal(userID string, in JournalInput) (*models.Journal, error) {
	if err := validateJournal(in); err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = s.cal.Today()
	}

	entry := &models.Journal{
		UserID:  userID,
		Title:   strings.TrimSpace(in.Title),
		Content: in.Content,
		Date:    date.UTC(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, internal(err)
	}
	enqueue(s.refresher, userID, s.cal.Now())
	return entry, nil
}

// UpdateJournal replaces title and content, and the date when one is given.
func (s *journalService) UpdateJournal(userID, journalID string, in JournalInput) (*models.Journal, error) {
	entry, err := s.GetJournalByID(userID, journalID)
	if err != nil {
		return nil, err
	}
	if err := validateJournal(in); err != nil {
		return nil, err
	}

	entry.Title = strings.TrimSpace(in.Title)
	entry.Content = in.Content
	if !in.Date.IsZero() {
		entry.Date = in.Date.UTC()
	}
	if err := s.db.Save(entry).Error; err != nil {
		return nil, internal(err)
	}
	return entry, nil
}

func (s *journalService) DeleteJournal(userID, journalID string) error {
	entry, err := s.GetJournalByID(userID, journalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(entry).Error; err != nil {
		return internal(err)
	}
	enqueue(s.refresher, userID, entry.CreatedAt)
	return nil
}

// GetStats counts entries matching the filter and breaks the filter's year
// (default: the current year) down by month.
func (s *journalService) GetStats(userID string, filter JournalFilter) (*JournalStats, error) {
	stats := &JournalStats{EntriesByMonth: make([]MonthCount, 0, 12)}
	if err := s.scoped(userID, filter).Count(&stats.TotalEntries).Error; err != nil {
		return nil, internal(err)
	}

	year := filter.Year
	if year < 1 {
		year = s.cal.Now().Year()
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.cal.Location())

	var dates []time.Time
	if err := s.db.Model(&models.Journal{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start.UTC(), start.AddDate(1, 0, 0).UTC()).
		Pluck("date", &dates).Error; err != nil {
		return nil, internal(err)
	}

	var perMonth [12]int64
	for _, d := range dates {
		perMonth[d.In(s.cal.Location()).Month()-1]++
	}
	for i, n := range perMonth {
		stats.EntriesByMonth = append(stats.EntriesByMonth, MonthCount{Month: i + 1, Count: n})
	}
	return stats, nil
}

func validateJournal(in JournalInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "content is required")
	}
	return nil
}
