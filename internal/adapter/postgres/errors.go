package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// pgCodes maps SQLSTATE codes raised by the run schema to domain errors.
var pgCodes = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation: run or record id reused
	"23503": domain.ErrNotFound,      // foreign_key_violation: record for a deleted run
	"23514": domain.ErrInvariant,     // check_violation: unknown partition or run status
}

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// entity and its identifier. Context errors are wrapped but not mapped.
func MapError(err error, entity string, id fmt.Stringer) error {
	if err == nil {
		return nil
	}
	target := err

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
	case errors.Is(err, pgx.ErrNoRows):
		target = domain.ErrNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if mapped, ok := pgCodes[pgErr.Code]; ok {
				target = mapped
			}
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, target)
}
