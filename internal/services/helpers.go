package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
)

// ownedModel is a pointer to a user-scoped row type.
type ownedModel[T any] interface {
	*T
	models.Owned
}

// findOwned loads a row by id. A missing row maps to notFound and a row owned
// by someone else to ErrForbidden, without revealing its contents.
func findOwned[T any, PT ownedModel[T]](db *gorm.DB, userID, id string, notFound *apperrors.AppError) (*T, error) {
	var row T
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if PT(&row).OwnerID() != userID {
		return nil, apperrors.ErrForbidden
	}
	return &row, nil
}

// enqueue forwards to the refresher when one is configured.
func enqueue(r WeekRefresher, userID string, dates ...time.Time) {
	if r == nil {
		return
	}
	for _, d := range dates {
		r.Enqueue(userID, d)
	}
}

func internal(err error) error {
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
