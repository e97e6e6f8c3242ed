package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantMode string
		wantRest []string
		wantErr  bool
	}{
		{"default", nil, ModeMatcher, nil, false},
		{"flag", []string{"--mode=db-check", "--config=x.yaml"}, ModeDBCheck, []string{"--config=x.yaml"}, false},
		{"alias flag", []string{"--mode=m"}, ModeMatcher, nil, false},
		{"shorthand", []string{"check", "--log-level=debug"}, ModeDBCheck, []string{"--log-level=debug"}, false},
		{"shorthand only first", []string{"matcher", "check"}, ModeMatcher, []string{"check"}, false},
		{"unknown", []string{"--mode=ride-service"}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, rest, err := ParseMode(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer

	opts, err := ParseFlags(ModeMatcher, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, Options{ConfigPath: "config/config.yaml", EnvFile: ".env"}, opts)

	opts, err = ParseFlags(ModeMatcher, []string{"-c", "prod.yaml", "--env-file=", "--log-level", "debug"}, &out)
	require.NoError(t, err)
	assert.Equal(t, Options{ConfigPath: "prod.yaml", EnvFile: "", LogLevel: "debug"}, opts)

	_, err = ParseFlags(ModeDBCheck, []string{"--help"}, &out)
	assert.ErrorIs(t, err, ErrHelp)
	assert.Contains(t, out.String(), "--mode=db-check")

	_, err = ParseFlags(ModeMatcher, []string{"--prefetch=8"}, &out)
	assert.Error(t, err)

	_, err = ParseFlags(ModeMatcher, []string{"extra"}, &out)
	assert.Error(t, err)
}
