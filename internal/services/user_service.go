package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user
func (s *userService) CreateUser(username, email, password, avatar string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	// Validate input
	if email == "" || password == "" || username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}

	// Check if user with email exists
	if taken, err := s.emailTaken(email, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal(err)
	}

	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Avatar:   avatar,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, internal(err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, internal(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, internal(err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin verifies credentials. Unknown emails and wrong passwords
// produce the same error.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, internal(err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// UpdateProfile applies profile changes. Changing the password requires the
// current one.
func (s *userService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if len(name) < 3 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username must be at least 3 characters")
		}
		updates["username"] = name
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != user.Email {
			taken, err := s.emailTaken(email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperrors.ErrDuplicateEmail
			}
			updates["email"] = email
		}
	}
	if update.Avatar != nil {
		updates["avatar"] = *update.Avatar
	}
	if update.NewPassword != nil {
		if update.CurrentPassword == "" || !s.VerifyPassword(user, update.CurrentPassword) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidCredentials, "current password is incorrect")
		}
		if len(*update.NewPassword) < 6 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 6 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, internal(err)
		}
		updates["password"] = string(hashed)
		// Outstanding refresh tokens die with the old password.
		updates["refresh_token_hash"] = ""
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, internal(err)
	}
	return s.GetUserByID(userID)
}

// StoreRefreshTokenHash saves the SHA-256 hash of the latest refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// ListUserIDs returns every user id, oldest first.
func (s *userService) ListUserIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.User{}).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, internal(err)
	}
	return ids, nil
}

func (s *userService) emailTaken(email, exceptID string) (bool, error) {
	q := s.db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, internal(err)
	}
	return count > 0, nil
}
