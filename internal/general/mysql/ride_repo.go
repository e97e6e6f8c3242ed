package mysql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// RideRepo reads published ride offers through sqlx.
type RideRepo struct {
	db    *sqlx.DB
	query string
}

// NewRideRepo constructs a RideRepo for table, filtering on departureColumn.
func NewRideRepo(db *sqlx.DB, table, departureColumn string) *RideRepo {
	return &RideRepo{db: db, query: departingBetweenQuery(table, departureColumn)}
}

func departingBetweenQuery(table, departureColumn string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s BETWEEN ? AND ?",
		strings.Join(parts, "."), quoteIdent(departureColumn))
}

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// RidesDepartingBetween returns every ride whose departure lies in [start, end]
// as a column-name -> value map, in storage order.
func (repo *RideRepo) RidesDepartingBetween(ctx context.Context, start, end time.Time) ([]map[string]any, error) {
	rows, err := repo.db.QueryxContext(ctx, repo.query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query rides departing between: %w", err)
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		record := make(map[string]any)
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		records = append(records, normalizeRecord(record))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// normalizeRecord turns the driver's []byte text values into strings.
func normalizeRecord(record map[string]any) map[string]any {
	for k, v := range record {
		if b, ok := v.([]byte); ok {
			record[k] = string(b)
		}
	}
	return record
}

// Ping verifies the handle can reach the database.
func (repo *RideRepo) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}
