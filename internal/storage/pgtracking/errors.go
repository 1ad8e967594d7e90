package pgtracking

import (
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
)

func isPgErrorWithCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// writeErr classifies a failed write while keeping the driver error text.
// Constraint violations are caller mistakes (ErrValidation); anything else is
// ErrPersistence.
func writeErr(err error, op string) error {
	switch {
	case isPgErrorWithCode(err, pgErrUniqueViolation):
		return errors.Wrapf(models.ErrValidation, "%s: duplicate key: %v", op, err)
	case isPgErrorWithCode(err, pgErrCheckViolation):
		return errors.Wrapf(models.ErrValidation, "%s: %v", op, err)
	default:
		return errors.Wrapf(models.ErrPersistence, "%s: %v", op, err)
	}
}
