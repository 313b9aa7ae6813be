package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isUniqueViolation recognizes unique key collisions from postgres and sqlite,
// with or without gorm's error translation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isLockAbort recognizes transactions postgres aborted to break a deadlock
// or a serialization conflict
func isLockAbort(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailure
	}
	return false
}

func lockAbortError(err error) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, fmt.Sprintf("transaction aborted by the database: %v", err))
}

// translateWriteError maps driver errors of an insert or update into
// domain errors
func translateWriteError(err error, what string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("%s collided with an existing unique value", what))
	}
	if isLockAbort(err) {
		return lockAbortError(err)
	}
	return err
}

// translateReadError maps gorm.ErrRecordNotFound to NOT_FOUND and lock
// aborts to CONCURRENCY_CONFLICT
func translateReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if isLockAbort(err) {
		return lockAbortError(err)
	}
	return err
}

// translateScopeError classifies what a unit of work returned, including
// errors raised while committing
func translateScopeError(err error) error {
	var de *shared.DomainError
	if err == nil || errors.As(err, &de) {
		return err
	}
	if isLockAbort(err) {
		return lockAbortError(err)
	}
	return err
}
