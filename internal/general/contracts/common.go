package contracts

import (
	"bytes"
	"encoding/json"

	"rides-matcher/internal/domain/geo"
)

// GeoPoint is a location as sent by the backend.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is either a GeoPoint object or a plain address string.
type Place struct {
	Point   *GeoPoint
	Address string
}

// UnmarshalJSON accepts {"lat":..,"lng":..}, "some address" or null.
func (place *Place) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*place = Place{}
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &place.Address)
	}
	var point GeoPoint
	if err := json.Unmarshal(b, &point); err != nil {
		return err
	}
	place.Point = &point
	return nil
}

// Coordinate returns the point as a domain coordinate, if present.
func (place *Place) Coordinate() *geo.Coordinate {
	if place == nil || place.Point == nil {
		return nil
	}
	return &geo.Coordinate{Latitude: place.Point.Lat, Longitude: place.Point.Lng}
}

func (place *Place) address() string {
	if place == nil {
		return ""
	}
	return place.Address
}
