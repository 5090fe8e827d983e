package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			_ = Logger.Sync()
		})
	}
}

func TestNopLoggerBeforeInitialize(t *testing.T) {
	// The package init() must leave a safe, non-nil logger so callers that
	// log before Initialize runs don't panic.
	assert.NotPanics(t, func() {
		Info("no-op before Initialize")
		Infow("no-op before Initialize", "k", "v")
	})
}

func TestCleanup(t *testing.T) {
	require.NoError(t, Initialize(false))
	assert.NoError(t, Cleanup())
}
