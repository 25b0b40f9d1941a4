package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/anmar534/loctah-sub000/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == foreignKeyViolation
}

// offerCheckRejections maps the offers table CHECK constraints to the
// rejection the guard would have produced.
var offerCheckRejections = map[string]domain.ErrorCode{
	"offers_price_order":   domain.CodeInvalidPrice,
	"offers_window_order":  domain.CodeInvalidDateRange,
	"offers_percent_range": domain.CodeInvalidPrice,
}

func offerCheckRejection(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != checkViolation {
		return nil
	}
	code, ok := offerCheckRejections[pgErr.ConstraintName]
	if !ok {
		return nil
	}
	return domain.Reject(code, "offer violates %s", pgErr.ConstraintName)
}
