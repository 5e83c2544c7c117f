package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	_uniqueViolationCode  = "23505"
	_lockNotAvailableCode = "55P03"
	_serializationCode    = "40001"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == _uniqueViolationCode
}

// IsLockTimeout reports whether err is a bounded lock wait expiring or a
// serialization failure; both are retryable concurrency conflicts.
func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) &&
		(pgErr.Code == _lockNotAvailableCode || pgErr.Code == _serializationCode)
}
