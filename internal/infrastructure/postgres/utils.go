package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fabritex/stock-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
// Ocurre cuando dos transacciones crean a la vez el mismo par (producto, ubicación).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isSerializationFailure verifica fallos de serialización o deadlock
// (40001 serialization_failure, 40P01 deadlock_detected). Postgres aborta una
// de las dos transacciones; el caller debe reintentar la operación completa.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// classifyError traduce errores de concurrencia a domain.ErrConflict
// (reintentable). El resto se propaga sin tocar.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) || isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}
