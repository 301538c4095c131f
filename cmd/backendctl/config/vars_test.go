package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateVerbosityLevels(t *testing.T) {
	Trace, Debug, Verbose = true, false, false
	TtyMode, LogDestination, OsEnvironmentMode = "false", "stderr", ""
	defer func() { Trace, Debug, Verbose = false, false, false }()

	assert.NoError(t, update())
	assert.True(t, Debug, "--trace should imply --debug")
	assert.True(t, Verbose, "--debug should imply --verbose")
	assert.False(t, Tty)
	assert.Equal(t, "everything", OsEnvironmentMode)
}

func TestUpdateRejectsUnknownModes(t *testing.T) {
	tests := []struct {
		name                   string
		tty, dest, environment string
	}{
		{"tty", "maybe", "stderr", "strict"},
		{"log destination", "false", "syslog", "strict"},
		{"os environment", "false", "stderr", "some"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			TtyMode, LogDestination, OsEnvironmentMode = tt.tty, tt.dest, tt.environment
			assert.Error(t, update())
		})
	}
	TtyMode, LogDestination, OsEnvironmentMode = "autodetect", "stderr", "everything"
}
