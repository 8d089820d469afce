package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier superficie mínima de consulta que comparten *pgxpool.Pool y pgx.Tx.
// Los adaptadores reciben un Querier para poder usarse con el pool (lecturas)
// o atados a una transacción (motores de ajuste/traslado).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
