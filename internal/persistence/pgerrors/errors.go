package pgerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"mindforum/internal/core"
)

const uniqueViolation = "23505"

// Translate maps store-level failures onto the service error taxonomy:
// gorm's record-not-found becomes the given entity sentinel, a Postgres
// unique violation becomes a Conflict, anything else passes through.
func Translate(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrConflict, pgErr.ConstraintName)
	}

	return err
}
