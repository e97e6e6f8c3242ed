package ride

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateFromRecord(t *testing.T) {
	departure := time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)

	t.Run("typed values", func(t *testing.T) {
		record := map[string]any{"id": int64(11), "data_hora_partida": departure, "vagas": int64(3)}
		c, err := CandidateFromRecord(record, "id", "data_hora_partida", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, ID("11"), c.ID)
		assert.True(t, departure.Equal(c.DepartureTime))
		assert.Equal(t, int64(3), c.Record["vagas"])
	})

	t.Run("textual timestamp and case-insensitive columns", func(t *testing.T) {
		record := map[string]any{"ID": []byte("12"), "dataHoraPartida": []byte("2024-05-01 10:20:00")}
		c, err := CandidateFromRecord(record, "id", "DATAHORAPARTIDA", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, ID("12"), c.ID)
		assert.True(t, departure.Equal(c.DepartureTime))
	})

	t.Run("missing departure column", func(t *testing.T) {
		_, err := CandidateFromRecord(map[string]any{"id": 1}, "id", "data_hora_partida", time.UTC)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("blank id", func(t *testing.T) {
		for _, id := range []any{"", []byte("")} {
			record := map[string]any{"id": id, "data_hora_partida": departure}
			_, err := CandidateFromRecord(record, "id", "data_hora_partida", time.UTC)
			assert.ErrorIs(t, err, ErrInvalidID)
		}
	})

	t.Run("garbage timestamp", func(t *testing.T) {
		record := map[string]any{"id": 1, "data_hora_partida": "tomorrow"}
		_, err := CandidateFromRecord(record, "id", "data_hora_partida", time.UTC)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})
}

func TestNewMatchOutcome(t *testing.T) {
	none := NewMatchOutcome("42", nil)
	assert.False(t, none.Matched())
	assert.Nil(t, none.MatchedRideID)

	some := NewMatchOutcome("42", []CandidateRide{{ID: "7"}, {ID: "8"}})
	require.True(t, some.Matched())
	assert.Equal(t, ID("7"), *some.MatchedRideID)
	assert.Equal(t, ID("42"), some.RequestID)

	skipBlank := NewMatchOutcome("42", []CandidateRide{{ID: ""}, {ID: "9"}})
	require.True(t, skipBlank.Matched())
	assert.Equal(t, ID("9"), *skipBlank.MatchedRideID)

	onlyBlank := NewMatchOutcome("42", []CandidateRide{{ID: ""}})
	assert.False(t, onlyBlank.Matched())
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = NewValidationError(FieldDepartureTime, "is required", nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrDecode)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldDepartureTime, verr.Field)

	cause := errors.New("unexpected end of JSON input")
	err = &DecodeError{Err: cause}
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, cause)
}
