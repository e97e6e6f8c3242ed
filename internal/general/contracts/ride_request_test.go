package contracts

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"rides-matcher/internal/domain/ride"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRideRequest_Example(t *testing.T) {
	msg, err := DecodeRideRequest([]byte(`{"solicitacaoId": 42, "dataHoraPartida": [2024,5,1,10,0]}`))
	require.NoError(t, err)
	assert.Equal(t, ride.ID("42"), msg.SolicitacaoID)

	req, err := msg.Normalize(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), req.DepartureTime)
	assert.Equal(t, ride.ID("42"), req.RequestID)
	assert.Nil(t, req.Origin)
}

func TestDecodeRideRequest_Malformed(t *testing.T) {
	bodies := []string{
		``,
		`   `,
		`not json`,
		`{"solicitacaoId": 42,`,
		`[1,2,3]`,
		`{"solicitacaoId": {"nested": true}}`,
	}
	for _, body := range bodies {
		_, err := DecodeRideRequest([]byte(body))
		assert.ErrorIs(t, err, ride.ErrDecode, "body %q", body)
	}
}

func TestNormalize_MissingDepartureIsZero(t *testing.T) {
	for _, body := range []string{`{"solicitacaoId": 1}`, `{"solicitacaoId": 1, "dataHoraPartida": null}`} {
		msg, err := DecodeRideRequest([]byte(body))
		require.NoError(t, err)

		req, err := msg.Normalize(time.UTC)
		require.NoError(t, err)
		assert.True(t, req.DepartureTime.IsZero())
	}
}

func TestNormalize_MalformedDepartureIsValidationError(t *testing.T) {
	values := []string{
		`[2024,5,1,10]`,
		`[2024,5,1,10,0,0,0,0]`,
		`[2024,13,1,10,0]`,
		`[2024,2,30,10,0]`,
		`[2024,5,1,24,0]`,
		`[2024,5,1,10,60]`,
		`[2024,5,1,10.5,0]`,
		`["2024",5,1,10,0]`,
		`"yesterday"`,
		`1714557600`,
		`{"year":2024}`,
	}
	for _, v := range values {
		msg, err := DecodeRideRequest([]byte(`{"solicitacaoId": 1, "dataHoraPartida": ` + v + `}`))
		require.NoError(t, err, v)

		_, err = msg.Normalize(time.UTC)
		require.Error(t, err, v)
		assert.ErrorIs(t, err, ride.ErrValidation, v)

		var verr *ride.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, ride.FieldDepartureTime, verr.Field)
	}
}

func TestParseLocalDateTime_AcceptedForms(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tests := []struct {
		raw  string
		loc  *time.Location
		want time.Time
	}{
		{`[2024,5,1,10,0]`, time.UTC, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`[2024,5,1,10,0,30]`, time.UTC, time.Date(2024, 5, 1, 10, 0, 30, 0, time.UTC)},
		{`[2024,5,1,10,0,30,500]`, time.UTC, time.Date(2024, 5, 1, 10, 0, 30, 500, time.UTC)},
		{`[2024,2,29,23,59]`, time.UTC, time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)},
		{`"2024-05-01T10:00:00"`, time.UTC, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01T10:00"`, time.UTC, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`[2024,5,1,10,0]`, sp, time.Date(2024, 5, 1, 10, 0, 0, 0, sp)},
		{`"2024-05-01T10:00:00Z"`, sp, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseLocalDateTime(json.RawMessage(tt.raw), tt.loc)
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got), "%s: want %s got %s", tt.raw, tt.want, got)
	}
}

func TestNormalize_Places(t *testing.T) {
	body := `{
		"solicitacaoId": "s-1",
		"estudanteId": 9,
		"dataHoraPartida": [2024,5,1,10,0],
		"origem": {"lat": -19.92, "lng": -43.94},
		"destino": "PUC Minas - Coração Eucarístico"
	}`
	msg, err := DecodeRideRequest([]byte(body))
	require.NoError(t, err)

	req, err := msg.Normalize(time.UTC)
	require.NoError(t, err)
	require.NotNil(t, req.Origin)
	assert.InDelta(t, -19.92, req.Origin.Latitude, 1e-9)
	assert.Nil(t, req.Destination)
	assert.Equal(t, "PUC Minas - Coração Eucarístico", req.DestinationAddress)
	assert.Equal(t, ride.ID("9"), req.StudentID)

	_, ok := req.TripDistanceKM()
	assert.False(t, ok)
}
