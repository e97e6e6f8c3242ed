package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RideRepo reads published ride offers with plain SQL over a pgx pool.
type RideRepo struct {
	pool  *pgxpool.Pool
	query string
}

// NewRideRepo constructs a RideRepo for table, filtering on departureColumn.
// table may be schema-qualified ("public.carona").
func NewRideRepo(pool *pgxpool.Pool, table, departureColumn string) *RideRepo {
	return &RideRepo{pool: pool, query: departingBetweenQuery(table, departureColumn)}
}

// departingBetweenQuery builds the window query with quoted identifiers.
func departingBetweenQuery(table, departureColumn string) string {
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s BETWEEN $1 AND $2",
		pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		pgx.Identifier{departureColumn}.Sanitize(),
	)
}

// RidesDepartingBetween returns every ride whose departure lies in [start, end]
// as a column-name -> value map, in storage order.
func (repo *RideRepo) RidesDepartingBetween(ctx context.Context, start, end time.Time) ([]map[string]any, error) {
	rows, err := repo.pool.Query(ctx, repo.query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query rides departing between: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect ride rows: %w", err)
	}

	return records, nil
}

// Ping verifies the pool can reach the database.
func (repo *RideRepo) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}
