package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNew_WritesConsoleAndAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	var console bytes.Buffer
	log, closer, err := New("info", path, &console)
	require.NoError(t, err)

	log.Info("plc connection established", "endpoint", "opc.tcp://plc:4840")
	log.Debug("hidden")
	require.NoError(t, closer.Close())

	require.Contains(t, console.String(), "plc connection established")
	require.Contains(t, console.String(), "time=")
	require.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "previous run\n")
	require.Contains(t, string(data), "plc connection established")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New("loud", "", nil)
	require.Error(t, err)
}
