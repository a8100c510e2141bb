package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Alert lifecycle
var (
	ErrAlertNotFound      = errors.New("alert not found")
	ErrUserIDRequired     = errors.New("user ID required")
	ErrInvalidRiskLevel   = errors.New("risk level must be between 1 and 10")
	ErrInvalidSnoozeToken = errors.New("unparseable snooze duration")
)

// Preferences
var (
	ErrPreferencesNotFound = errors.New("notification preferences not found")
)
