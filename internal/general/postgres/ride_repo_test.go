package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepartingBetweenQuery(t *testing.T) {
	tests := []struct {
		table, column, want string
	}{
		{"carona", "data_hora_partida", `SELECT * FROM "carona" WHERE "data_hora_partida" BETWEEN $1 AND $2`},
		{"public.carona", "dataHoraPartida", `SELECT * FROM "public"."carona" WHERE "dataHoraPartida" BETWEEN $1 AND $2`},
		{`odd"name`, "col", `SELECT * FROM "odd""name" WHERE "col" BETWEEN $1 AND $2`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, departingBetweenQuery(tt.table, tt.column))
	}
}
