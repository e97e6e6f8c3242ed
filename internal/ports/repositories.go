package ports

import (
	"context"
	"time"
)

// RideRepository is the storage capability behind the ride store.
type RideRepository interface {
	// RidesDepartingBetween returns every persisted ride whose departure
	// timestamp lies in [start, end], each as a column-name -> value map.
	RidesDepartingBetween(ctx context.Context, start, end time.Time) ([]map[string]any, error)
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}
