package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common repository errors
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubTaskNotFound = errors.New("subtask not found")
	ErrStatusNotFound  = errors.New("status not found")

	// ErrDuplicate is returned when a unique constraint rejects the write
	ErrDuplicate = errors.New("record already exists")

	// ErrStatusInUse is returned when deleting a status that tasks still reference
	ErrStatusInUse = errors.New("status is in use")
)

func postgresError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if pgErr := postgresError(err); pgErr != nil && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	pgErr := postgresError(err)
	return pgErr != nil && pgErr.Code == pgerrcode.ForeignKeyViolation
}
