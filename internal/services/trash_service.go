package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/timeutil"
)

type trashService struct {
	db        *gorm.DB
	cal       *timeutil.Calendar
	retention time.Duration
	refresher WeekRefresher
}

// NewTrashService creates a new TrashServicer. Items expire retention after
// they are trashed.
func NewTrashService(db *gorm.DB, cal *timeutil.Calendar, retention time.Duration, refresher WeekRefresher) TrashServicer {
	return &trashService{db: db, cal: cal, retention: retention, refresher: refresher}
}

// MoveToTrash serializes an owned entity, deletes it and stores the copy,
// all in one transaction.
func (s *trashService) MoveToTrash(userID string, itemType models.TrashType, originalID string) (*models.TrashItem, error) {
	now := s.cal.Now().UTC()
	var (
		item     *models.TrashItem
		affected []time.Time
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var (
			data   json.RawMessage
			entity any
			err    error
		)
		switch itemType {
		case models.TrashTypeGoal:
			data, entity, err = detach[models.Goal](tx, userID, originalID, apperrors.ErrGoalNotFound)
		case models.TrashTypeWorkout:
			data, entity, err = detach[models.Workout](tx, userID, originalID, apperrors.ErrWorkoutNotFound)
		case models.TrashTypeTransaction:
			data, entity, err = detach[models.Transaction](tx, userID, originalID, apperrors.ErrTransactionNotFound)
		case models.TrashTypeJournal:
			data, entity, err = detach[models.Journal](tx, userID, originalID, apperrors.ErrJournalNotFound)
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown trash type")
		}
		if err != nil {
			return err
		}

		item = &models.TrashItem{
			UserID:     userID,
			Type:       itemType,
			OriginalID: originalID,
			Data:       data,
			TrashedAt:  now,
			ExpiresAt:  now.Add(s.retention),
		}
		if err := tx.Create(item).Error; err != nil {
			return internal(err)
		}
		affected = affectedDates(entity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	enqueue(s.refresher, userID, append(affected, now)...)
	return item, nil
}

// ListTrash returns unexpired items, most recently trashed first.
func (s *trashService) ListTrash(userID string) ([]models.TrashItem, error) {
	var items []models.TrashItem
	if err := s.db.
		Where("user_id = ? AND expires_at > ?", userID, s.cal.Now().UTC()).
		Order("trashed_at DESC").
		Find(&items).Error; err != nil {
		return nil, internal(err)
	}
	return items, nil
}

// Restore recreates the entity under its original id and removes the item.
func (s *trashService) Restore(userID, trashID string) (*models.TrashItem, error) {
	item, err := findOwned[models.TrashItem](s.db, userID, trashID, apperrors.ErrTrashItemNotFound)
	if err != nil {
		return nil, err
	}

	var affected []time.Time
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var (
			entity any
			err    error
		)
		switch item.Type {
		case models.TrashTypeGoal:
			entity, err = reattach[models.Goal](tx, item, nil)
		case models.TrashTypeWorkout:
			entity, err = reattach[models.Workout](tx, item, func(w *models.Workout) *gorm.DB {
				return tx.Model(&models.Workout{}).Where("user_id = ? AND week_id = ?", w.UserID, w.WeekID)
			})
		case models.TrashTypeTransaction:
			entity, err = reattach[models.Transaction](tx, item, nil)
		case models.TrashTypeJournal:
			entity, err = reattach[models.Journal](tx, item, nil)
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown trash type")
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return internal(err)
		}
		affected = affectedDates(entity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	enqueue(s.refresher, userID, append(affected, s.cal.Now())...)
	return item, nil
}

// DeleteItem permanently removes one trash item.
func (s *trashService) DeleteItem(userID, trashID string) error {
	item, err := findOwned[models.TrashItem](s.db, userID, trashID, apperrors.ErrTrashItemNotFound)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return internal(err)
	}
	return nil
}

// Empty removes every trash item of the user and returns how many.
func (s *trashService) Empty(userID string) (int64, error) {
	res := s.db.Where("user_id = ?", userID).Delete(&models.TrashItem{})
	if res.Error != nil {
		return 0, internal(res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeExpired removes items of all users whose retention has elapsed.
func (s *trashService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.TrashItem{})
	if res.Error != nil {
		return 0, internal(res.Error)
	}
	return res.RowsAffected, nil
}

// detach loads an owned row, deletes it and returns its JSON form.
func detach[T any, PT ownedModel[T]](tx *gorm.DB, userID, id string, notFound *apperrors.AppError) (json.RawMessage, PT, error) {
	row, err := findOwned[T, PT](tx, userID, id, notFound)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, nil, internal(err)
	}
	if err := tx.Delete(row).Error; err != nil {
		return nil, nil, internal(err)
	}
	return data, PT(row), nil
}

// reattach decodes a trashed row and inserts it again. conflict, when set,
// selects rows that would violate a natural key besides the id.
func reattach[T any, PT ownedModel[T]](tx *gorm.DB, item *models.TrashItem, conflict func(PT) *gorm.DB) (PT, error) {
	var row T
	if err := json.Unmarshal(item.Data, &row); err != nil {
		return nil, internal(err)
	}
	ptr := PT(&row)
	if ptr.OwnerID() != item.UserID {
		return nil, apperrors.ErrForbidden
	}

	var count int64
	if err := tx.Model(new(T)).Where("id = ?", item.OriginalID).Count(&count).Error; err != nil {
		return nil, internal(err)
	}
	if count == 0 && conflict != nil {
		if err := conflict(ptr).Count(&count).Error; err != nil {
			return nil, internal(err)
		}
	}
	if count > 0 {
		return nil, apperrors.ErrRestoreConflict
	}

	if err := tx.Create(ptr).Error; err != nil {
		return nil, internal(err)
	}
	return ptr, nil
}

// affectedDates lists the days whose snapshots depend on entity.
func affectedDates(entity any) []time.Time {
	switch e := entity.(type) {
	case *models.Transaction:
		return []time.Time{e.Date}
	case *models.Goal:
		if e.CompletedAt != nil {
			return []time.Time{*e.CompletedAt}
		}
	case *models.Workout:
		if !e.IsTemplate {
			return []time.Time{e.StartDate}
		}
	case *models.Journal:
		return []time.Time{e.CreatedAt}
	}
	return nil
}
