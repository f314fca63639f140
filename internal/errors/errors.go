// Package errors provides custom error types for the Empire API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel compare equal to it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Detail returns the internal error text, or "" when there is none.
func (e *AppError) Detail() string {
	if e.Internal == nil {
		return ""
	}
	return e.Internal.Error()
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized        = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials  = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidRefreshToken = &AppError{Code: "INVALID_REFRESH_TOKEN", Message: "Invalid or expired refresh token", StatusCode: http.StatusUnauthorized}
	ErrForbidden           = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrAlreadyExists  = &AppError{Code: "ALREADY_EXISTS", Message: "Resource already exists", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrNotConfigured  = &AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Pipeline API key is not configured", StatusCode: http.StatusServiceUnavailable}
	ErrInvalidAPIKey  = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Goal errors.
var (
	ErrGoalNotFound = &AppError{Code: "GOAL_NOT_FOUND", Message: "Goal not found", StatusCode: http.StatusNotFound}
	ErrTaskNotFound = &AppError{Code: "TASK_NOT_FOUND", Message: "Task not found", StatusCode: http.StatusNotFound}
	ErrGoalNoTasks  = &AppError{Code: "GOAL_NO_TASKS", Message: "A goal needs at least one task", StatusCode: http.StatusBadRequest}
)

// Workout errors.
var (
	ErrWorkoutNotFound  = &AppError{Code: "WORKOUT_NOT_FOUND", Message: "Workout not found", StatusCode: http.StatusNotFound}
	ErrDayNotFound      = &AppError{Code: "DAY_NOT_FOUND", Message: "Workout day not found", StatusCode: http.StatusNotFound}
	ErrExerciseNotFound = &AppError{Code: "EXERCISE_NOT_FOUND", Message: "Exercise not found", StatusCode: http.StatusNotFound}
	ErrWorkoutArchived  = &AppError{Code: "WORKOUT_ARCHIVED", Message: "Archived weeks cannot be modified", StatusCode: http.StatusConflict}
)

// Journal errors.
var (
	ErrJournalNotFound = &AppError{Code: "JOURNAL_NOT_FOUND", Message: "Journal entry not found", StatusCode: http.StatusNotFound}
)

// Trash errors.
var (
	ErrTrashItemNotFound = &AppError{Code: "TRASH_ITEM_NOT_FOUND", Message: "Trash item not found", StatusCode: http.StatusNotFound}
	ErrRestoreConflict   = &AppError{Code: "RESTORE_CONFLICT", Message: "An item with this id already exists", StatusCode: http.StatusConflict}
)
