package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/finlit/finlit-api/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

var constraintErrors = map[string]struct {
	sentinel error
	kind     string
}{
	uniqueViolationCode:     {store.ErrDuplicate, "unique violation"},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key violation"},
	checkViolationCode:      {store.ErrInvalidEntity, "check violation"},
	notNullViolationCode:    {store.ErrInvalidEntity, "not null violation"},
}

// MapError wraps a failed statement on entity in a *store.StoreError. Known
// constraint failures and missing rows wrap the matching store sentinel;
// anything else wraps err itself.
func MapError(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.NewStoreError(entity, op, "no rows", store.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if c, ok := constraintErrors[pgErr.Code]; ok {
			detail := pgErr.ConstraintName
			if detail == "" {
				detail = pgErr.ColumnName
			}
			return store.NewStoreError(entity, op, fmt.Sprintf("%s (%s)", c.kind, detail), c.sentinel)
		}
	}
	return store.NewStoreError(entity, op, "database error", err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == uniqueViolationCode
}

// IsForeignKeyViolation reports a foreign key violation, e.g. an expense
// inserted for a simulation deleted concurrently.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == foreignKeyViolationCode
}

// IsCheckConstraintViolation reports a CHECK failure such as a
// non-positive expense amount.
func IsCheckConstraintViolation(err error) bool {
	return pgCode(err) == checkViolationCode
}

// checkRowsAffected returns notFound when the statement touched no rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
