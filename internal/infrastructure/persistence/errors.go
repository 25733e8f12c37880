package persistence

import (
	"errors"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isUniqueViolation recognises a raw PostgreSQL unique violation as well as
// the translated gorm error produced by dialects with TranslateError enabled
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// violatedConstraint returns the PostgreSQL constraint name, empty when unknown
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// uniqueViolation maps a unique violation to a domain conflict. byConstraint
// picks the error for a named constraint; fallback covers the rest.
func uniqueViolation(err error, byConstraint map[string]error, fallback error) error {
	if err == nil || !isUniqueViolation(err) {
		return err
	}
	if mapped, ok := byConstraint[violatedConstraint(err)]; ok {
		return mapped
	}
	return fallback
}
