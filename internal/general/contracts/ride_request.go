package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rides-matcher/internal/domain/ride"
)

// RideRequestMessage is published by the backend on the request queue.
//
//	{"solicitacaoId": 42, "dataHoraPartida": [2024, 5, 1, 10, 0]}
type RideRequestMessage struct {
	SolicitacaoID   ride.ID         `json:"solicitacaoId"`
	EstudanteID     ride.ID         `json:"estudanteId,omitempty"`
	DataHoraPartida json.RawMessage `json:"dataHoraPartida"`
	Origem          *Place          `json:"origem,omitempty"`
	Destino         *Place          `json:"destino,omitempty"`
}

var (
	ErrEmptyBody         = errors.New("empty message body")
	ErrDateTimeShape     = errors.New("expected [year, month, day, hour, minute] or an ISO-8601 local date-time")
	ErrDateTimeComponent = errors.New("date-time component out of range")
)

// DecodeRideRequest parses a raw delivery body. Any failure is a *ride.DecodeError.
func DecodeRideRequest(body []byte) (RideRequestMessage, error) {
	var msg RideRequestMessage
	if len(bytes.TrimSpace(body)) == 0 {
		return msg, &ride.DecodeError{Err: ErrEmptyBody}
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return RideRequestMessage{}, &ride.DecodeError{Err: err}
	}
	return msg, nil
}

// Normalize converts the wire message into a domain request, reading the
// local departure date-time in loc. A missing departure time is left zero;
// a malformed one is a *ride.ValidationError.
func (msg RideRequestMessage) Normalize(loc *time.Location) (ride.RideRequest, error) {
	departure, err := ParseLocalDateTime(msg.DataHoraPartida, loc)
	if err != nil {
		return ride.RideRequest{}, ride.NewValidationError(ride.FieldDepartureTime, "is malformed", err)
	}

	return ride.RideRequest{
		RequestID:          msg.SolicitacaoID,
		StudentID:          msg.EstudanteID,
		DepartureTime:      departure,
		Origin:             msg.Origem.Coordinate(),
		Destination:        msg.Destino.Coordinate(),
		OriginAddress:      msg.Origem.address(),
		DestinationAddress: msg.Destino.address(),
	}, nil
}

// ParseLocalDateTime reads a local date-time encoded as
// [year, month, day, hour, minute(, second(, nanos))] or as an ISO-8601 string.
// Absent or null input yields the zero time and no error.
func ParseLocalDateTime(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	switch raw[0] {
	case '[':
		return parseDateTimeArray(raw, loc)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return parseDateTimeString(s, loc)
	default:
		return time.Time{}, ErrDateTimeShape
	}
}

func parseDateTimeArray(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return time.Time{}, err
	}
	if len(parts) < 5 || len(parts) > 7 {
		return time.Time{}, fmt.Errorf("%w: got %d elements", ErrDateTimeShape, len(parts))
	}

	values := make([]int, 7)
	for i, p := range parts {
		n, err := strconv.Atoi(string(bytes.TrimSpace(p)))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: element %d is not an integer", ErrDateTimeShape, i)
		}
		values[i] = n
	}
	year, month, day, hour, minute, second, nanos := values[0], values[1], values[2], values[3], values[4], values[5], values[6]

	switch {
	case year < 1 || year > 9999:
		return time.Time{}, fmt.Errorf("%w: year %d", ErrDateTimeComponent, year)
	case month < 1 || month > 12:
		return time.Time{}, fmt.Errorf("%w: month %d", ErrDateTimeComponent, month)
	case day < 1 || day > 31:
		return time.Time{}, fmt.Errorf("%w: day %d", ErrDateTimeComponent, day)
	case hour < 0 || hour > 23:
		return time.Time{}, fmt.Errorf("%w: hour %d", ErrDateTimeComponent, hour)
	case minute < 0 || minute > 59:
		return time.Time{}, fmt.Errorf("%w: minute %d", ErrDateTimeComponent, minute)
	case second < 0 || second > 59:
		return time.Time{}, fmt.Errorf("%w: second %d", ErrDateTimeComponent, second)
	case nanos < 0 || nanos > 999_999_999:
		return time.Time{}, fmt.Errorf("%w: nanos %d", ErrDateTimeComponent, nanos)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc)
	// time.Date normalizes 2024-02-30 into March
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrDateTimeComponent, year, month, day)
	}
	return t, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseDateTimeString(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	// an explicit offset wins over loc
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateTimeShape, s)
}
