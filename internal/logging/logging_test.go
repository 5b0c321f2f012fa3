package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/storefront-auth/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "PROD", "warn")

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Str("request_id", "r-1").Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "r-1", line["request_id"])
	require.Equal(t, "kept", line["message"])
}

func TestNew_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "DEV", "debug")

	logger.Debug().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.False(t, json.Valid(buf.Bytes()))
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "PROD", "chatty")

	logger.Debug().Msg("dropped")
	require.Zero(t, buf.Len())
	logger.Info().Msg("kept")
	require.NotZero(t, buf.Len())
}
