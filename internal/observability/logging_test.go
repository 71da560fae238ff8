package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/config"
)

func TestNewLoggerBuildsWithDefaults(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "info"}, "roster-service")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLoggerFallsBackOnUnknownLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, "roster-service")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLoggerDevelopmentMode(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", Development: true}, "roster-service")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
