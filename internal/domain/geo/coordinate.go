package geo

import (
	"errors"
	"math"
)

// EarthRadiusKM is the mean Earth radius used by DistanceKM.
const EarthRadiusKM = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Validate checks that the pair lies on the globe.
// DistanceKM never calls it: out-of-range input is the caller's concern.
func (coordinate Coordinate) Validate() error {
	if coordinate.Latitude < -90 || coordinate.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if coordinate.Longitude < -180 || coordinate.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// DistanceTo returns the great-circle distance to other in kilometers.
func (coordinate Coordinate) DistanceTo(other Coordinate) float64 {
	return DistanceKM(coordinate.Latitude, coordinate.Longitude, other.Latitude, other.Longitude)
}

// DistanceKM is the haversine distance in kilometers between two points given in degrees.
// Latitude/longitude ranges are not checked.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}
