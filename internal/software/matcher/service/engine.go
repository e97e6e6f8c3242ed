package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rides-matcher/internal/domain/ride"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/ports"

	"github.com/go-playground/validator/v10"
)

// requestValidator is safe for concurrent use and caches struct metadata.
var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// wire names reported in validation errors
var wireFieldNames = map[string]string{
	"DepartureTime": ride.FieldDepartureTime,
}

// validateRequest checks the required fields of request.
// Every failure is a *ride.ValidationError naming the wire field.
func validateRequest(request ride.RideRequest) error {
	err := requestValidator.Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ride.NewValidationError(ride.FieldDepartureTime, "could not be validated", err)
	}

	fe := fieldErrs[0]
	field, ok := wireFieldNames[fe.StructField()]
	if !ok {
		field = fe.Field()
	}
	reason := "is invalid"
	if fe.Tag() == "required" {
		reason = "is required"
	}
	return ride.NewValidationError(field, reason, nil)
}

type matchEngine struct {
	logger *logger.Logger
	store  ports.RideStore
}

// NewMatchEngine returns the engine that validates requests and looks up candidates in store.
func NewMatchEngine(logger *logger.Logger, store ports.RideStore) ports.MatchEngine {
	return &matchEngine{logger: logger, store: store}
}

// Evaluate returns the candidates for request, unfiltered.
func (engine *matchEngine) Evaluate(ctx context.Context, request ride.RideRequest) ([]ride.CandidateRide, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	candidates := engine.store.FindRidesNear(ctx, request.DepartureTime)

	engine.logger.Info(ctx, "candidates_found",
		fmt.Sprintf("Found %d candidate rides", len(candidates)),
		map[string]any{
			"departure_time": request.DepartureTime.Format(time.RFC3339),
			"candidates":     len(candidates),
		},
	)
	for _, c := range candidates {
		engine.logger.Debug(ctx, "candidate_ride", "Candidate ride", map[string]any{
			"ride_id":        c.ID.String(),
			"departure_time": c.DepartureTime.Format(time.RFC3339),
		})
	}

	// informational only; candidates are not filtered by distance
	if km, ok := request.TripDistanceKM(); ok {
		engine.logger.Debug(ctx, "trip_distance", "Requested trip length", map[string]any{
			"distance_km": km,
		})
	}

	return candidates, nil
}
