/*
 * Copyright 2026 craneworks.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Sentinel errors forming the taxonomy every layer above speaks.
var (
	// ErrNotFound is returned when a referenced entity is absent at
	// read-for-update, update, or delete time.
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation is returned when a uniqueness, not-null, or
	// foreign key constraint is violated at create or update time.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrValidation is returned when input fails shape or range checks
	// before reaching the storage backend.
	ErrValidation = errors.New("validation failed")

	// ErrInternal is returned for unexpected backend failures. Its cause is
	// logged but never surfaced to API clients.
	ErrInternal = errors.New("internal storage error")
)

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConstraintViolation reports whether err is an ErrConstraintViolation.
func IsConstraintViolation(err error) bool { return errors.Is(err, ErrConstraintViolation) }

// IsValidation reports whether err is an ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// StorageError pairs a sentinel with the original driver error so callers can
// use errors.Is for classification and still inspect the raw cause.
type StorageError struct {
	Sentinel error
	Cause    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sentinel, e.Cause)
}

func (e *StorageError) Is(target error) bool { return errors.Is(e.Sentinel, target) }

func (e *StorageError) Unwrap() error { return e.Cause }

// ValidationError constructs an ErrValidation with a caller-facing message.
func ValidationError(format string, args ...interface{}) error {
	return &StorageError{Sentinel: ErrValidation, Cause: fmt.Errorf(format, args...)}
}

// WrapError classifies a raw driver error into the package taxonomy. Already
// classified errors pass through unchanged; nil stays nil.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraintViolation) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrInternal) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &StorageError{Sentinel: ErrNotFound, Cause: err}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // ER_DUP_ENTRY
			return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
		case 1048: // ER_BAD_NULL_ERROR
			return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
		case 1216, 1217, 1452: // foreign key violations
			return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
		case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
			return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
		}
		return &StorageError{Sentinel: ErrInternal, Cause: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23502", "23503", "23514": // unique, not-null, fk, check
			return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
		}
		return &StorageError{Sentinel: ErrInternal, Cause: err}
	}

	// SQLite drivers do not export typed errors through the shim, so match
	// on the documented message text.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "not null constraint failed"),
		strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "check constraint failed"),
		strings.Contains(s, "sqlstate 23505"),
		strings.Contains(s, "sqlstate 23502"),
		strings.Contains(s, "sqlstate 23503"),
		strings.Contains(s, "sqlstate 23514"),
		strings.Contains(s, "duplicate key value"):
		return &StorageError{Sentinel: ErrConstraintViolation, Cause: err}
	}

	return &StorageError{Sentinel: ErrInternal, Cause: err}
}
