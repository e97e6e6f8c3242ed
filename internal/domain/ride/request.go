package ride

import (
	"time"

	"rides-matcher/internal/domain/geo"
)

// FieldDepartureTime is the wire name of the departure time.
const FieldDepartureTime = "dataHoraPartida"

// RideRequest is a passenger asking for a ride around a departure time.
type RideRequest struct {
	RequestID ID
	StudentID ID

	// zero when the message did not carry one
	DepartureTime time.Time `validate:"required"`

	Origin             *geo.Coordinate
	Destination        *geo.Coordinate
	OriginAddress      string
	DestinationAddress string
}

// TripDistanceKM returns the origin->destination distance when both ends are
// known and lie on the globe.
func (request RideRequest) TripDistanceKM() (float64, bool) {
	if request.Origin == nil || request.Destination == nil {
		return 0, false
	}
	if request.Origin.Validate() != nil || request.Destination.Validate() != nil {
		return 0, false
	}
	return request.Origin.DistanceTo(*request.Destination), true
}
