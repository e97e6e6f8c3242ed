package ride

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CandidateRide is a read-only projection of a persisted ride offer.
type CandidateRide struct {
	ID            ID
	DepartureTime time.Time
	Record        map[string]any // the row as returned by storage
}

var (
	ErrMissingColumn    = errors.New("column missing from ride record")
	ErrInvalidTimestamp = errors.New("departure column is not a timestamp")
)

// textual layouts produced by SQL drivers that do not parse timestamps
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// CandidateFromRecord turns a field-named row into a CandidateRide.
// Column lookup falls back to a case-insensitive match; textual timestamps are read in loc.
func CandidateFromRecord(record map[string]any, idColumn, departureColumn string, loc *time.Location) (CandidateRide, error) {
	rawID, ok := lookup(record, idColumn)
	if !ok {
		return CandidateRide{}, fmt.Errorf("%w: %s", ErrMissingColumn, idColumn)
	}
	id, err := IDFromValue(rawID)
	if err != nil {
		return CandidateRide{}, fmt.Errorf("column %s: %w", idColumn, err)
	}

	rawDeparture, ok := lookup(record, departureColumn)
	if !ok {
		return CandidateRide{}, fmt.Errorf("%w: %s", ErrMissingColumn, departureColumn)
	}
	departure, err := toTime(rawDeparture, loc)
	if err != nil {
		return CandidateRide{}, fmt.Errorf("column %s: %w", departureColumn, err)
	}

	return CandidateRide{ID: id, DepartureTime: departure, Record: record}, nil
}

func lookup(record map[string]any, column string) (any, bool) {
	if v, ok := record[column]; ok {
		return v, true
	}
	for k, v := range record {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

func toTime(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var s string
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, ErrInvalidTimestamp
		}
		return *val, nil
	case string:
		s = val
	case []byte:
		s = string(val)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrInvalidTimestamp, v)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
