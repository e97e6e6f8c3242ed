package ride

import (
	"testing"

	"rides-matcher/internal/domain/geo"

	"github.com/stretchr/testify/assert"
)

func TestRideRequest_TripDistanceKM(t *testing.T) {
	campus := geo.Coordinate{Latitude: -19.9245, Longitude: -43.9352}
	north := geo.Coordinate{Latitude: -19.9245 + 0.009, Longitude: -43.9352}
	offGlobe := geo.Coordinate{Latitude: 120, Longitude: -43.9352}

	km, ok := RideRequest{Origin: &campus, Destination: &north}.TripDistanceKM()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, km, 0.01)

	_, ok = RideRequest{Origin: &campus}.TripDistanceKM()
	assert.False(t, ok)

	_, ok = RideRequest{Origin: &offGlobe, Destination: &campus}.TripDistanceKM()
	assert.False(t, ok, "out-of-range coordinates are not reported")
}
