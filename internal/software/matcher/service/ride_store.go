package service

import (
	"context"
	"fmt"
	"time"

	"rides-matcher/internal/domain/ride"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/ports"
)

// RideStoreConfig describes the lookup window and how rows are read.
type RideStoreConfig struct {
	Before          time.Duration
	After           time.Duration
	IDColumn        string
	DepartureColumn string
	Location        *time.Location
}

type rideStore struct {
	logger *logger.Logger
	repo   ports.RideRepository
	cfg    RideStoreConfig
}

// NewRideStore wraps repo with the fail-soft candidate lookup.
func NewRideStore(logger *logger.Logger, repo ports.RideRepository, cfg RideStoreConfig) ports.RideStore {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &rideStore{logger: logger, repo: repo, cfg: cfg}
}

// FindRidesNear returns every persisted ride departing inside the window around centerTime.
// Storage failures are logged and produce an empty result.
func (store *rideStore) FindRidesNear(ctx context.Context, centerTime time.Time) []ride.CandidateRide {
	window, err := ride.NewTimeWindow(centerTime, store.cfg.Before, store.cfg.After)
	if err != nil {
		store.logger.Warn(ctx, "ride_window_invalid", "Configured window is invalid, using the default tolerance",
			map[string]any{"before": store.cfg.Before.String(), "after": store.cfg.After.String(), "error": err.Error()})
		window = ride.DefaultWindow(centerTime)
	}

	details := map[string]any{
		"window_start": window.Start().Format(time.RFC3339),
		"window_end":   window.End().Format(time.RFC3339),
	}

	records, err := store.repo.RidesDepartingBetween(ctx, window.Start(), window.End())
	if err != nil {
		store.logger.Error(ctx, "ride_lookup_failed", "Ride lookup failed, continuing with no candidates",
			fmt.Errorf("%w: %w", ride.ErrStorage, err), details)
		return []ride.CandidateRide{}
	}

	candidates := make([]ride.CandidateRide, 0, len(records))
	for i, record := range records {
		candidate, err := ride.CandidateFromRecord(record, store.cfg.IDColumn, store.cfg.DepartureColumn, store.cfg.Location)
		if err != nil {
			store.logger.Warn(ctx, "ride_record_skipped", "Skipping unreadable ride record",
				map[string]any{"row": i, "error": err.Error()})
			continue
		}
		candidates = append(candidates, candidate)
	}

	details["rows"] = len(records)
	details["candidates"] = len(candidates)
	store.logger.Debug(ctx, "ride_lookup_completed", "Ride lookup completed", details)

	return candidates
}
